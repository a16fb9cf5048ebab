package devserver

import (
	"sync"
)

// storedCredential is one provisioned passkey: the credential ID and the
// CBOR-encoded COSE public key extracted at registration.
type storedCredential struct {
	ID        []byte
	PublicKey []byte
}

// sessionState is everything tracked per cookie session: provisioned
// credentials plus at most one pending challenge per ceremony kind.
type sessionState struct {
	credentials       []*storedCredential
	signChallenge     string
	signData          string
	registerChallenge string
}

type credentialStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

func newCredentialStore() *credentialStore {
	return &credentialStore{sessions: make(map[string]*sessionState)}
}

func (s *credentialStore) session(id string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		state = &sessionState{}
		s.sessions[id] = state
	}
	return state
}

func (s *credentialStore) setSignChallenge(id, challenge, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		state = &sessionState{}
		s.sessions[id] = state
	}
	state.signChallenge = challenge
	state.signData = data
}

// takeSignChallenge returns and clears the pending sign challenge, making
// each challenge single-use.
func (s *credentialStore) takeSignChallenge(id string) (challenge, data string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.sessions[id]
	if !exists || state.signChallenge == "" {
		return "", "", false
	}

	challenge, data = state.signChallenge, state.signData
	state.signChallenge, state.signData = "", ""
	return challenge, data, true
}

func (s *credentialStore) setRegisterChallenge(id, challenge string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		state = &sessionState{}
		s.sessions[id] = state
	}
	state.registerChallenge = challenge
}

func (s *credentialStore) takeRegisterChallenge(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.sessions[id]
	if !exists || state.registerChallenge == "" {
		return "", false
	}

	challenge := state.registerChallenge
	state.registerChallenge = ""
	return challenge, true
}

func (s *credentialStore) addCredential(id string, cred *storedCredential) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		state = &sessionState{}
		s.sessions[id] = state
	}
	state.credentials = append(state.credentials, cred)
}

func (s *credentialStore) credentials(id string) []*storedCredential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[id]
	if !ok {
		return nil
	}

	out := make([]*storedCredential, len(state.credentials))
	copy(out, state.credentials)
	return out
}

func (s *credentialStore) findCredential(id string, credentialID []byte) (*storedCredential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	for _, cred := range state.credentials {
		if string(cred.ID) == string(credentialID) {
			return cred, true
		}
	}
	return nil, false
}
