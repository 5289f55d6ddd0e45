package entities

import (
	"github.com/decker502/stonecrush/pkg/components"
	"github.com/decker502/stonecrush/pkg/ecs"
)

// NewStoneViewEntity 创建一颗石子的视图实体
// 参数:
//   - manager: EntityManager 实例
//   - token: 石子 token，渲染时据此查找图片
//   - bonus: 是否为奖励石子
//
// 返回: 创建的实体ID
//
// 新实体尚未绑定格子，需要调用 ViewRegistry.Place。
// 偏移为 0、完全不透明；图片在首次绘制时解析。
func NewStoneViewEntity(manager *ecs.EntityManager, token string, bonus bool) ecs.EntityID {
	id := manager.CreateEntity()

	ecs.AddComponent(manager, id, &components.StoneViewComponent{
		Token: token,
		Bonus: bonus,
	})
	ecs.AddComponent(manager, id, &components.OffsetComponent{})
	ecs.AddComponent(manager, id, &components.OpacityComponent{Alpha: 1})
	ecs.AddComponent(manager, id, &components.SpriteComponent{})

	return id
}
