package mocks

import (
	"context"

	"qadamsafe/internal/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockAIClient is a mock type for the AIClient type
type MockAIClient struct {
	mock.Mock
}

var _ interfaces.AIClient = (*MockAIClient)(nil)

// GenerateText provides a mock function with given fields: ctx, systemPrompt, userInput, params
func (m *MockAIClient) GenerateText(ctx context.Context, systemPrompt, userInput string, params interfaces.GenerationParams) (string, interfaces.UsageInfo, error) {
	ret := m.Called(ctx, systemPrompt, userInput, params)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, string, interfaces.GenerationParams) string); ok {
		r0 = rf(ctx, systemPrompt, userInput, params)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}

	var r1 interfaces.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(interfaces.UsageInfo)
	}

	return r0, r1, ret.Error(2)
}

func (m *MockAIClient) Model() string {
	return "mock-model"
}
