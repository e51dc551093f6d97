package types

import "errors"

var (
	errInvalidBloomM       = errors.New("settings: bloom_m_hash_size out of range")
	errInvalidBloomK       = errors.New("settings: bloom_k_hash_functions out of range")
	errIncompatibleVersion = errors.New("settings: incompatible settings_version")
)
