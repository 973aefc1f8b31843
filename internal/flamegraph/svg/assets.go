// Copyright (C) 2025-2026 Clearpath Robotics
// SPDX-License-Identifier: BSD-3-Clause

package svg

import _ "embed"

// Static interactive assets embedded into every rendered SVG. The renderer
// treats both as opaque blobs; a parameter block with the render-time
// settings is emitted ahead of the script.

//go:embed assets/flamegraph.js
var ScriptJS string

//go:embed assets/flamegraph.css
var StyleCSS string
