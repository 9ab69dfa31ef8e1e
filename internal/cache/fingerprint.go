package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Params is the recognised parameter set a fingerprint is sensitive to.
// Every field is always encoded, default-valued or not, so that two
// requests differing only by an explicit default still share a bucket,
// while any genuine deviation forks it.
type Params struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Fingerprint returns the deterministic cache key for a request, in the
// form "cache:<hexdigest>". Identical inputs always yield identical output,
// independent of map-iteration order — the encoding here uses a struct with
// fixed field order, never a map, so there is no order to vary.
func Fingerprint(tenantID, model, prompt string, params Params) string {
	data, _ := json.Marshal(struct {
		TenantID string `json:"tenant_id"`
		Model    string `json:"model"`
		Prompt   string `json:"prompt"`
		Params   Params `json:"params"`
	}{
		TenantID: tenantID,
		Model:    model,
		Prompt:   prompt,
		Params:   params,
	})
	sum := sha256.Sum256(data)
	return "cache:" + hex.EncodeToString(sum[:])
}
