// Code style follows the teacher's generated-mock idiom
// (sarchlab/zeonica api/driver_internal_test.go's MockPort/MockDevice),
// hand-written here instead of mockgen-generated since the collaborator
// being doubled (puzzle.Catalog) lives in this module, not upstream.
package cli_test

import (
	"math/rand"
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/sarchlab/tis100sim/puzzle"
)

// MockCatalog is a gomock-style mock of puzzle.Catalog.
type MockCatalog struct {
	ctrl     *gomock.Controller
	recorder *MockCatalogRecorder
}

// MockCatalogRecorder is the EXPECT() recorder for MockCatalog.
type MockCatalogRecorder struct {
	mock *MockCatalog
}

// NewMockCatalog returns a new mock bound to ctrl.
func NewMockCatalog(ctrl *gomock.Controller) *MockCatalog {
	mock := &MockCatalog{ctrl: ctrl}
	mock.recorder = &MockCatalogRecorder{mock}
	return mock
}

// EXPECT returns the recorder for setting up expectations.
func (m *MockCatalog) EXPECT() *MockCatalogRecorder {
	return m.recorder
}

// Get implements puzzle.Catalog.
func (m *MockCatalog) Get(id string, inputSize int, rng *rand.Rand) (*puzzle.Puzzle, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", id, inputSize, rng)
	p, _ := ret[0].(*puzzle.Puzzle)
	ok, _ := ret[1].(bool)
	return p, ok
}

// Get indicates an expected call of Get.
func (mr *MockCatalogRecorder) Get(id, inputSize, rng interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get",
		reflect.TypeOf((*MockCatalog)(nil).Get), id, inputSize, rng)
}
