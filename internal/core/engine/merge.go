package engine

import (
	"github.com/hay-kot/acre/internal/core/review"
)

// mergeComments reconciles three comment sets: the base saved on the
// last sync, the set freshly read from disk, and the live in-memory
// set. Comments match by identity (file, anchor fields, author,
// content), not by ID, because external collaborators append comments
// without IDs.
//
// Rules:
//   - matched both sides: the in-memory copy wins, but a non-empty
//     external response fills an empty local one.
//   - external only: newly added by the collaborator, inserted.
//   - local only and absent from the base: unsaved local work, kept.
//   - local only but present in the base: the external side deleted it.
//     Honored when the local copy is unchanged since the base; a local
//     edit made since then outranks the deletion.
func mergeComments(base, external, local []review.Comment) []review.Comment {
	extByKey := map[review.IdentityKey][]int{}
	for i, c := range external {
		k := c.Identity()
		extByKey[k] = append(extByKey[k], i)
	}

	baseByID := map[string]review.Comment{}
	baseKeys := map[review.IdentityKey]bool{}
	for _, c := range base {
		baseByID[c.ID] = c
		baseKeys[c.Identity()] = true
	}

	consumed := make([]bool, len(external))
	var merged []review.Comment

	for _, c := range local {
		key := c.Identity()
		if idxs := extByKey[key]; len(idxs) > 0 {
			i := idxs[0]
			extByKey[key] = idxs[1:]
			consumed[i] = true

			ext := external[i]
			if c.Response == "" && ext.Response != "" {
				c.Response = ext.Response
				c.RespondedAt = ext.RespondedAt
			}
			if c.Extra == nil && ext.Extra != nil {
				c.Extra = ext.Extra
			}
			merged = append(merged, c)
			continue
		}

		if baseKeys[key] && !modifiedSince(c, baseByID) {
			continue // deleted externally
		}
		merged = append(merged, c)
	}

	for i, c := range external {
		if !consumed[i] {
			merged = append(merged, c)
		}
	}
	return merged
}

// modifiedSince reports whether the local copy diverged from the base
// copy with the same ID. A comment missing from the base counts as
// modified so it is never dropped.
func modifiedSince(c review.Comment, baseByID map[string]review.Comment) bool {
	b, ok := baseByID[c.ID]
	if !ok {
		return true
	}
	return c.Content != b.Content || c.Response != b.Response || c.Category != b.Category
}

// mergeReviewed unions the reviewed-flag maps, preferring the local
// value whenever both sides carry the same path.
func mergeReviewed(external, local map[string]bool) map[string]bool {
	out := make(map[string]bool, len(external)+len(local))
	for k, v := range external {
		out[k] = v
	}
	for k, v := range local {
		out[k] = v
	}
	return out
}
