// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package subscription

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/ligoj/plugin-req-squash/core/squash"
)

var (
	// ErrNotFound is matched by every lookup miss of the store.
	ErrNotFound = errors.New("not found")

	errDuplicateNode         = errors.New("duplicate node")
	errDuplicateSubscription = errors.New("duplicate subscription")
	errUnknownNode           = errors.New("subscription refers to an unknown node")
)

// storeFile is the YAML layout of the subscriptions file.
type storeFile struct {
	Nodes []struct {
		ID         string            `yaml:"id"`
		Parameters map[string]string `yaml:"parameters"`
	} `yaml:"nodes"`

	Subscriptions []struct {
		ID         int               `yaml:"id"`
		Node       string            `yaml:"node"`
		Parameters map[string]string `yaml:"parameters"`
	} `yaml:"subscriptions"`
}

// Store is a read-only set of nodes and subscriptions. It is safe for concurrent use.
type Store struct {
	nodes         map[string]squash.Parameters
	subscriptions map[int]Subscription
}

// LoadStore reads the subscriptions file at path.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions file %s: %w", path, err)
	}

	store, err := ParseStore(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions from %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("nodes", len(store.nodes)).
		Int("subscriptions", len(store.subscriptions)).
		Msg("Loaded subscriptions")

	return store, nil
}

// ParseStore builds a store from the YAML document data.
//
// Subscription parameters are merged over the parameters of their node, the
// subscription's value winning.
func ParseStore(data []byte) (*Store, error) {
	var file storeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	store := &Store{
		nodes:         make(map[string]squash.Parameters, len(file.Nodes)),
		subscriptions: make(map[int]Subscription, len(file.Subscriptions)),
	}

	for _, node := range file.Nodes {
		if _, ok := store.nodes[node.ID]; ok {
			return nil, fmt.Errorf("%w: %s", errDuplicateNode, node.ID)
		}

		store.nodes[node.ID] = squash.Parameters(maps.Clone(node.Parameters))
	}

	for _, sub := range file.Subscriptions {
		if _, ok := store.subscriptions[sub.ID]; ok {
			return nil, fmt.Errorf("%w: %d", errDuplicateSubscription, sub.ID)
		}

		nodeParams, ok := store.nodes[sub.Node]
		if !ok {
			return nil, fmt.Errorf("%w: subscription %d, node %q", errUnknownNode, sub.ID, sub.Node)
		}

		params := make(squash.Parameters, len(nodeParams)+len(sub.Parameters))
		maps.Copy(params, nodeParams)
		maps.Copy(params, sub.Parameters)

		store.subscriptions[sub.ID] = Subscription{
			ID:         sub.ID,
			Node:       sub.Node,
			Parameters: params,
		}
	}

	return store, nil
}

// Subscription returns a copy of the subscription with the given identifier.
func (s *Store) Subscription(id int) (*Subscription, error) {
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("subscription %d: %w", id, ErrNotFound)
	}

	sub.Parameters = maps.Clone(sub.Parameters)

	return &sub, nil
}

// NodeParameters returns a copy of the parameters of the given node.
func (s *Store) NodeParameters(node string) (squash.Parameters, error) {
	params, ok := s.nodes[node]
	if !ok {
		return nil, fmt.Errorf("node %q: %w", node, ErrNotFound)
	}

	return maps.Clone(params), nil
}
