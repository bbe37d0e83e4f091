package llm

import (
	"fmt"
	"pbm-portal/internal/constants"
	"sync"
)

type Manager struct {
	clients map[string]Client
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]Client),
	}
}

func (m *Manager) RegisterClient(name string, config Config) error {
	var client Client
	var err error

	switch config.Provider {
	case constants.OpenAI:
		client, err = NewOpenAIClient(config)
	case constants.Gemini:
		client, err = NewGeminiClient(config)
	default:
		return fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}

	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	m.SetClient(name, client)
	return nil
}

// SetClient registers an already constructed client under name.
func (m *Manager) SetClient(name string, client Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[name] = client
}

func (m *Manager) GetClient(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, exists := m.clients[name]
	if !exists {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}

	return client, nil
}

// Models reports the model behind every registered client.
func (m *Manager) Models() map[string]ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	models := make(map[string]ModelInfo, len(m.clients))
	for name, client := range m.clients {
		models[name] = client.GetModelInfo()
	}
	return models
}
