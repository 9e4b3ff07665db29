package chat

// SelectChat makes the chat with the given id active.
func (m *Manager) SelectChat(id string) error {
	m.mutex.Lock()
	if _, ok := m.chats[id]; !ok {
		m.mutex.Unlock()
		return ErrUnknownChat
	}
	m.activeID = id
	m.mutex.Unlock()
	m.changed()
	return nil
}

// SelectModel selects the model used for the next completion.
func (m *Manager) SelectModel(id string) bool {
	m.mutex.Lock()
	found := false
	for _, model := range m.models {
		if model.ID == id {
			m.selectedModel = id
			found = true
			break
		}
	}
	m.mutex.Unlock()
	if found {
		m.changed()
	}
	return found
}

// CycleModel selects the model after the selected one, wrapping around.
func (m *Manager) CycleModel() string {
	m.mutex.Lock()
	if len(m.models) == 0 {
		m.mutex.Unlock()
		return ""
	}
	next := 0
	for i, model := range m.models {
		if model.ID == m.selectedModel {
			next = (i + 1) % len(m.models)
			break
		}
	}
	m.selectedModel = m.models[next].ID
	selected := m.selectedModel
	m.mutex.Unlock()
	m.changed()
	return selected
}
