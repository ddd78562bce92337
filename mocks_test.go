package zeen_test

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
)

// routerContext names the embedded router.Context so the field does not
// clash with the Context method below
type routerContext = router.Context

// MockContext keeps request state in plain fields and routes responses
// through mock.Mock. Methods the handlers never call fall through to the
// nil embedded router.Context.
type MockContext struct {
	routerContext
	mock.Mock

	ctx     context.Context
	headers map[string]string
	params  map[string]string
	locals  map[any]any
	body    []byte

	status  int
	payload any
}

func NewMockContext() *MockContext {
	return &MockContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		params:  map[string]string{},
		locals:  map[any]any{},
	}
}

func (m *MockContext) Context() context.Context {
	return m.ctx
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.ctx = ctx
}

func (m *MockContext) Path() string {
	return "/test"
}

func (m *MockContext) Header(key string) string {
	return m.headers[key]
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if v, ok := m.params[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	return defaultValue
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.locals[key] = value[0]
	}
	return m.locals[key]
}

func (m *MockContext) Bind(i any) error {
	if len(m.body) == 0 {
		return nil
	}
	return json.Unmarshal(m.body, i)
}

func (m *MockContext) JSON(code int, val any) error {
	m.status = code
	m.payload = val
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	m.status = code
	args := m.Called(code)
	return args.Error(0)
}

// errorCode digs the code out of an errorBody payload
func (m *MockContext) errorCode() string {
	body, ok := m.payload.(map[string]any)
	if !ok {
		return ""
	}
	inner, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := inner["code"].(string)
	return code
}

// chain wraps h so the first middleware runs first
func chain(h router.HandlerFunc, mws ...router.MiddlewareFunc) router.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
