package tagging_test

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockStatsHost is a hand-written mock of the StatsHost interface,
// in the shape go.uber.org/mock's mockgen would generate for it.
type MockStatsHost struct {
	ctrl     *gomock.Controller
	recorder *MockStatsHostMockRecorder
}

// MockStatsHostMockRecorder is the mock recorder for MockStatsHost.
type MockStatsHostMockRecorder struct {
	mock *MockStatsHost
}

// NewMockStatsHost creates a new mock instance.
func NewMockStatsHost(ctrl *gomock.Controller) *MockStatsHost {
	mock := &MockStatsHost{ctrl: ctrl}
	mock.recorder = &MockStatsHostMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStatsHost) EXPECT() *MockStatsHostMockRecorder {
	return m.recorder
}

func (m *MockStatsHost) IncTagsInUse(delta int) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "IncTagsInUse", delta)
}

func (mr *MockStatsHostMockRecorder) IncTagsInUse(delta any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IncTagsInUse", reflect.TypeOf((*MockStatsHost)(nil).IncTagsInUse), delta)
}

func (m *MockStatsHost) TagsInUse() int {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TagsInUse")
	ret0, _ := ret[0].(int)
	return ret0
}

func (mr *MockStatsHostMockRecorder) TagsInUse() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TagsInUse", reflect.TypeOf((*MockStatsHost)(nil).TagsInUse))
}

func (m *MockStatsHost) IncReplacements(kind int, delta int) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "IncReplacements", kind, delta)
}

func (mr *MockStatsHostMockRecorder) IncReplacements(kind, delta any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IncReplacements", reflect.TypeOf((*MockStatsHost)(nil).IncReplacements), kind, delta)
}

func (m *MockStatsHost) IncOccupancy(owner int, delta int) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "IncOccupancy", owner, delta)
}

func (mr *MockStatsHostMockRecorder) IncOccupancy(owner, delta any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IncOccupancy", reflect.TypeOf((*MockStatsHost)(nil).IncOccupancy), owner, delta)
}

func (m *MockStatsHost) Occupancy(owner int) int {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Occupancy", owner)
	ret0, _ := ret[0].(int)
	return ret0
}

func (mr *MockStatsHostMockRecorder) Occupancy(owner any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Occupancy", reflect.TypeOf((*MockStatsHost)(nil).Occupancy), owner)
}

func (m *MockStatsHost) AddTotalRefs(delta int) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "AddTotalRefs", delta)
}

func (mr *MockStatsHostMockRecorder) AddTotalRefs(delta any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddTotalRefs", reflect.TypeOf((*MockStatsHost)(nil).AddTotalRefs), delta)
}

func (m *MockStatsHost) AddSampledRefs(delta int) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "AddSampledRefs", delta)
}

func (mr *MockStatsHostMockRecorder) AddSampledRefs(delta any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddSampledRefs", reflect.TypeOf((*MockStatsHost)(nil).AddSampledRefs), delta)
}

func (m *MockStatsHost) MarkWarmedUp(cycle uint64) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "MarkWarmedUp", cycle)
}

func (mr *MockStatsHostMockRecorder) MarkWarmedUp(cycle any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkWarmedUp", reflect.TypeOf((*MockStatsHost)(nil).MarkWarmedUp), cycle)
}

func (m *MockStatsHost) WarmedUp() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WarmedUp")
	ret0, _ := ret[0].(bool)
	return ret0
}

func (mr *MockStatsHostMockRecorder) WarmedUp() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WarmedUp", reflect.TypeOf((*MockStatsHost)(nil).WarmedUp))
}
