// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package filters

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/quiz/basket"
)

// keyedQuota is one entry of an allow-list, optionally carrying a quota.
type keyedQuota struct {
	Key   string
	Quota basket.Quota
}

// keyedList is an allow-list decoded from either ["tv", "movie"] or {"tv": <quota>, ...}.
// Keys are lower-cased; object keys are sorted for a stable plan order.
type keyedList []keyedQuota

func (l *keyedList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if data[0] == '[' {
		var keys []string
		if err := json.Unmarshal(data, &keys); err != nil {
			return fmt.Errorf("allow-list: %w", err)
		}
		out := make(keyedList, 0, len(keys))
		for _, k := range keys {
			out = append(out, keyedQuota{Key: normalizeKey(k)})
		}
		*l = out
		return nil
	}

	var obj map[string]basket.Quota
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("allow-list: %w", err)
	}
	out := make(keyedList, 0, len(obj))
	for k, q := range obj {
		out = append(out, keyedQuota{Key: normalizeKey(k), Quota: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	*l = out
	return nil
}

// active returns the enabled keys as a set.
func (l keyedList) active() map[string]bool {
	set := make(map[string]bool, len(l))
	for _, kq := range l {
		if kq.Quota.Active() {
			set[kq.Key] = true
		}
	}
	return set
}

func (l keyedList) hasQuota() bool {
	for _, kq := range l {
		if kq.Quota.HasTarget() {
			return true
		}
	}
	return false
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
