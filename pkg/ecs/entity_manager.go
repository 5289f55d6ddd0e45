package ecs

import (
	"reflect"
	"sort"
)

// EntityID 石子视图实体标识，0 保留为无效ID
type EntityID uint64

// EntityManager 保存石子视图实体及其组件
//
// 组件按类型建索引：type -> entity -> component，查询只遍历持有该组件的实体。
// 销毁是延迟的：DestroyEntity 只做标记，RemoveMarkedEntities 在帧末统一清理，
// 同一帧内的查询结果因此保持稳定。
type EntityManager struct {
	nextID  EntityID
	alive   map[EntityID]struct{}
	byType  map[reflect.Type]map[EntityID]interface{}
	pending []EntityID
	marked  map[EntityID]struct{}
}

// NewEntityManager 创建空的实体管理器，第一个实体ID为 1
func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID: 1,
		alive:  make(map[EntityID]struct{}),
		byType: make(map[reflect.Type]map[EntityID]interface{}),
		marked: make(map[EntityID]struct{}),
	}
}

// CreateEntity 分配新的实体ID
func (em *EntityManager) CreateEntity() EntityID {
	id := em.nextID
	em.nextID++
	em.alive[id] = struct{}{}
	return id
}

// DestroyEntity 标记实体待删除，重复标记只记一次
func (em *EntityManager) DestroyEntity(id EntityID) {
	if _, ok := em.alive[id]; !ok {
		return
	}
	if _, ok := em.marked[id]; ok {
		return
	}
	em.marked[id] = struct{}{}
	em.pending = append(em.pending, id)
}

// Exists 已标记删除但尚未清理的实体仍视为存在
func (em *EntityManager) Exists(id EntityID) bool {
	_, ok := em.alive[id]
	return ok
}

// Count 存活实体数（含已标记未清理的）
func (em *EntityManager) Count() int {
	return len(em.alive)
}

// AddComponent 为实体添加组件，同类型组件会被覆盖；实体不存在时忽略
func (em *EntityManager) AddComponent(id EntityID, component interface{}) {
	if _, ok := em.alive[id]; !ok {
		return
	}
	t := reflect.TypeOf(component)
	store, ok := em.byType[t]
	if !ok {
		store = make(map[EntityID]interface{})
		em.byType[t] = store
	}
	store[id] = component
}

// RemoveComponent 移除实体的某类组件
func (em *EntityManager) RemoveComponent(id EntityID, componentType reflect.Type) {
	if store, ok := em.byType[componentType]; ok {
		delete(store, id)
	}
}

// GetComponent 获取实体的某类组件
func (em *EntityManager) GetComponent(id EntityID, componentType reflect.Type) (interface{}, bool) {
	comp, ok := em.byType[componentType][id]
	return comp, ok
}

// HasComponent 实体是否持有某类组件
func (em *EntityManager) HasComponent(id EntityID, componentType reflect.Type) bool {
	_, ok := em.byType[componentType][id]
	return ok
}

// RemoveMarkedEntities 清理所有已标记的实体及其组件
func (em *EntityManager) RemoveMarkedEntities() {
	if len(em.pending) == 0 {
		return
	}
	for _, id := range em.pending {
		delete(em.alive, id)
		delete(em.marked, id)
		for _, store := range em.byType {
			delete(store, id)
		}
	}
	em.pending = em.pending[:0]
}

// GetEntitiesWith 查询同时持有全部给定组件类型的实体，按ID升序返回
// 不传类型时返回所有存活实体
func (em *EntityManager) GetEntitiesWith(componentTypes ...reflect.Type) []EntityID {
	var result []EntityID
	if len(componentTypes) == 0 {
		result = make([]EntityID, 0, len(em.alive))
		for id := range em.alive {
			result = append(result, id)
		}
	} else {
		// 从最小的组件集合开始过滤
		smallest := em.byType[componentTypes[0]]
		for _, t := range componentTypes[1:] {
			if len(em.byType[t]) < len(smallest) {
				smallest = em.byType[t]
			}
		}
		result = make([]EntityID, 0, len(smallest))
	candidates:
		for id := range smallest {
			for _, t := range componentTypes {
				if _, ok := em.byType[t][id]; !ok {
					continue candidates
				}
			}
			result = append(result, id)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
