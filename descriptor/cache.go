// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package descriptor

import (
	"fmt"
	"strconv"

	"github.com/13MaxG/avroproto"
	"github.com/13MaxG/avroproto/internal/debug"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// DefaultCacheSize is the number of compiled descriptors kept by NewCache
// when a non-positive size is given.
const DefaultCacheSize = 128

type cacheKey struct {
	fingerprint uint64
	cdc         bool
}

func (k cacheKey) String() string {
	return strconv.FormatUint(k.fingerprint, 16) + ":" + strconv.FormatBool(k.cdc)
}

// Cache builds and compiles the descriptor of a schema once and hands out
// the same immutable descriptor afterwards. It is safe for concurrent use;
// concurrent misses on one schema share a single build.
type Cache struct {
	entries *lru.Cache[cacheKey, protoreflect.MessageDescriptor]
	group   singleflight.Group
}

// NewCache returns a cache holding at most size descriptors.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[cacheKey, protoreflect.MessageDescriptor](size)
	if err != nil {
		return nil, fmt.Errorf("descriptor: create cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the compiled descriptor of t, building it on first use.
func (c *Cache) Get(t *avroproto.Type, opts ...Option) (protoreflect.MessageDescriptor, error) {
	if t == nil {
		return nil, avroproto.NewSchemaError("", "", "nil record type")
	}
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	key := cacheKey{fingerprint: t.Fingerprint(), cdc: cfg.cdc}
	if md, ok := c.entries.Get(key); ok {
		return md, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		if md, ok := c.entries.Get(key); ok {
			return md, nil
		}
		debug.Log(func() string { return "descriptor: cache miss for " + t.FullName() })
		md, err := BuildMessage(t, opts...)
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, md)
		return md, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(protoreflect.MessageDescriptor), nil
}

// Len returns the number of cached descriptors.
func (c *Cache) Len() int { return c.entries.Len() }
