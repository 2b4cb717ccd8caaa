// Package session caches the token and identity returned by the Agile login
// call and owns its lifecycle.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Session is the result of one successful login. It is never mutated; a new
// login replaces it wholesale.
type Session struct {
	Token    string
	UID      int
	GID      int
	HomePath string
}

type identity struct {
	UID  *int    `json:"uid"`
	GID  *int    `json:"gid"`
	Path *string `json:"path"`
}

var errBadCredentials = errors.New("bad credentials")

// decodeLogin decodes the login result, a two element array
// [token, {"uid":..,"gid":..,"path":..}]. The service answers [null, null]
// for bad credentials.
func decodeLogin(raw json.RawMessage) (Session, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return Session{}, fmt.Errorf("decode login result: %w", err)
	}
	if len(parts) != 2 {
		return Session{}, fmt.Errorf("decode login result: expected 2 elements, got %d", len(parts))
	}

	var token *string
	if err := json.Unmarshal(parts[0], &token); err != nil {
		return Session{}, fmt.Errorf("decode login token: %w", err)
	}
	var id *identity
	if err := json.Unmarshal(parts[1], &id); err != nil {
		return Session{}, fmt.Errorf("decode login identity: %w", err)
	}
	if token == nil && id == nil {
		return Session{}, errBadCredentials
	}
	if token == nil || *token == "" || id == nil || id.UID == nil || id.GID == nil || id.Path == nil {
		return Session{}, fmt.Errorf("decode login result: incomplete response %s", string(raw))
	}

	return Session{Token: *token, UID: *id.UID, GID: *id.GID, HomePath: *id.Path}, nil
}
