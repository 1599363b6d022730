package appstate

import (
	"encoding/json"

	"github.com/grovetools/widgetdeck/kv"
	"github.com/grovetools/widgetdeck/statestore"
)

// Codec converts AppState to and from its persisted form.
func Codec() statestore.Codec[AppState] {
	return statestore.Codec[AppState]{
		Migrate: Migrate,
		Decode:  Decode,
		Encode: func(s AppState) (any, error) {
			return ToPersistent(s), nil
		},
	}
}

// Decode validates and decodes a current-version payload. Fields missing
// from the payload keep their fresh-install defaults.
func Decode(obj json.RawMessage) (AppState, error) {
	if err := ValidatePayload(obj); err != nil {
		return AppState{}, err
	}

	p := PersistentAppState{UI: PersistentUI{AppConfig: DefaultAppConfig()}}
	if err := json.Unmarshal(obj, &p); err != nil {
		return AppState{}, err
	}
	return FromPersistent(p), nil
}

// NewStateStorage persists AppState under key.
func NewStateStorage(store *kv.JSON, key string) *statestore.Storage[AppState] {
	return statestore.New(store, key, CurrentVersion, MinSupportedVersion, Codec())
}
