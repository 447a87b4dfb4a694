// Package manifest loads the bundle manifest: which sub-applications take
// part in the bundle, where their build output lives, and how the entry
// page is rewritten.
//
// The manifest is optional. Without one, the built-in set of sub-apps
// (vue-app, react-app, vanilla-app) is used. When present it is looked up in
// the workspace root in this order:
//
//   - mfbundle.yaml
//   - mfbundle.yml
//   - mfbundle.jsonc
//   - mfbundle.json
//
// YAML is parsed with gopkg.in/yaml.v3. JSON files may contain comments and
// trailing commas (JSONC); github.com/tidwall/jsonc strips them before the
// standard encoding/json decoder runs.
package manifest
