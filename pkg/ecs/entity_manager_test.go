package ecs

import (
	"reflect"
	"testing"
)

// 测试组件类型定义
type testCellComponent struct {
	Row, Col int
}

type testOffsetComponent struct {
	X, Y float64
}

func TestCreateEntity(t *testing.T) {
	em := NewEntityManager()
	id1 := em.CreateEntity()
	id2 := em.CreateEntity()

	// 测试实体ID唯一性
	if id1 == id2 {
		t.Error("Entity IDs should be unique")
	}

	// 测试ID从1开始
	if id1 != 1 {
		t.Errorf("First entity ID should be 1, got %d", id1)
	}
	if em.Count() != 2 {
		t.Errorf("Count() = %d, want 2", em.Count())
	}
}

func TestAddAndGetComponent(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()

	em.AddComponent(id, &testCellComponent{Row: 4, Col: 1})

	comp, found := em.GetComponent(id, reflect.TypeOf(&testCellComponent{}))
	if !found {
		t.Fatal("Component should be found")
	}

	cell := comp.(*testCellComponent)
	if cell.Row != 4 || cell.Col != 1 {
		t.Errorf("Component data mismatch, expected (4, 1), got (%d, %d)", cell.Row, cell.Col)
	}
}

func TestGenericAccessors(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	AddComponent(em, id, &testOffsetComponent{Y: -80})

	offset, ok := GetComponent[*testOffsetComponent](em, id)
	if !ok {
		t.Fatal("GetComponent[*testOffsetComponent] should succeed")
	}
	if offset.Y != -80 {
		t.Errorf("offset.Y = %v, want -80", offset.Y)
	}

	// 修改指针组件会反映到实体上
	offset.Y = 0
	again, _ := GetComponent[*testOffsetComponent](em, id)
	if again.Y != 0 {
		t.Errorf("component should be shared by pointer, got Y=%v", again.Y)
	}

	if _, ok := GetComponent[*testCellComponent](em, id); ok {
		t.Error("missing component should not be found")
	}

	if !HasComponent[*testOffsetComponent](em, id) {
		t.Error("HasComponent should be true")
	}
	RemoveComponent[*testOffsetComponent](em, id)
	if HasComponent[*testOffsetComponent](em, id) {
		t.Error("HasComponent should be false after RemoveComponent")
	}
}

func TestDestroyEntityIsDeferred(t *testing.T) {
	em := NewEntityManager()
	id := em.CreateEntity()
	em.AddComponent(id, &testCellComponent{})

	em.DestroyEntity(id)

	// 标记后仍然存在，直到 RemoveMarkedEntities
	if !em.Exists(id) {
		t.Error("entity should still exist before RemoveMarkedEntities")
	}

	em.RemoveMarkedEntities()

	if em.Exists(id) {
		t.Error("entity should be gone after RemoveMarkedEntities")
	}
	if em.HasComponent(id, reflect.TypeOf(&testCellComponent{})) {
		t.Error("components of a removed entity should be gone")
	}
}

func TestGetEntitiesWith(t *testing.T) {
	em := NewEntityManager()

	both := em.CreateEntity()
	em.AddComponent(both, &testCellComponent{})
	em.AddComponent(both, &testOffsetComponent{})

	cellOnly := em.CreateEntity()
	em.AddComponent(cellOnly, &testCellComponent{})

	em.CreateEntity() // 无组件

	tests := []struct {
		name string
		got  []EntityID
		want int
	}{
		{"单组件查询", GetEntitiesWith1[*testCellComponent](em), 2},
		{"双组件查询", em.GetEntitiesWith(reflect.TypeOf(&testCellComponent{}), reflect.TypeOf(&testOffsetComponent{})), 1},
		{"反射查询", em.GetEntitiesWith(reflect.TypeOf(&testOffsetComponent{})), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.got) != tt.want {
				t.Errorf("got %d entities, want %d", len(tt.got), tt.want)
			}
		})
	}
}

func TestGetEntitiesWithIsOrdered(t *testing.T) {
	em := NewEntityManager()
	ids := make([]EntityID, 0, 5)
	for i := 0; i < 5; i++ {
		id := em.CreateEntity()
		em.AddComponent(id, &testCellComponent{Row: i})
		ids = append(ids, id)
	}
	em.AddComponent(ids[3], &testOffsetComponent{})
	em.AddComponent(ids[1], &testOffsetComponent{})

	got := GetEntitiesWith1[*testCellComponent](em)
	for i := range got {
		if got[i] != ids[i] {
			t.Fatalf("query order = %v, want %v", got, ids)
		}
	}

	both := em.GetEntitiesWith(reflect.TypeOf(&testOffsetComponent{}), reflect.TypeOf(&testCellComponent{}))
	if len(both) != 2 || both[0] != ids[1] || both[1] != ids[3] {
		t.Errorf("two-component query = %v, want [%d %d]", both, ids[1], ids[3])
	}
}

func TestDestroyEntityTwice(t *testing.T) {
	em := NewEntityManager()
	keep := em.CreateEntity()
	gone := em.CreateEntity()
	em.AddComponent(gone, &testCellComponent{})

	em.DestroyEntity(gone)
	em.DestroyEntity(gone)
	em.DestroyEntity(EntityID(99)) // 不存在的实体被忽略
	if len(em.pending) != 1 {
		t.Errorf("pending = %v, want a single mark", em.pending)
	}

	em.RemoveMarkedEntities()
	if em.Count() != 1 || !em.Exists(keep) {
		t.Errorf("Count() = %d after cleanup, want only the kept entity", em.Count())
	}
	if len(em.marked) != 0 {
		t.Error("marks should be cleared after RemoveMarkedEntities")
	}
	if got := GetEntitiesWith1[*testCellComponent](em); len(got) != 0 {
		t.Errorf("components of the destroyed entity still queried: %v", got)
	}

	// 清理后ID不复用
	if next := em.CreateEntity(); next <= gone {
		t.Errorf("new id %d reuses a destroyed id", next)
	}
}
