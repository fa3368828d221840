package services

// SetKeyComparer replaces the admin key comparison for tests.
func (s *AuthService) SetKeyComparer(fn func(hash, key []byte) error) {
	s.compareKey = fn
}
