package wazevoapi

// These consts gate debug tracing and validation across the liveness
// package, so iterating on "where do we have debug logging?" doesn't
// require touching every file. This mirrors the teacher's
// wazevoapi.RegAllocLoggingEnabled / RegAllocValidationEnabled pattern,
// trimmed to the two consts this package's domain actually uses (the
// teacher's frontend/SSA/machine-code print consts have no equivalent
// here: there is no frontend, no SSA builder, and no codegen in this
// package's scope).

// RegAllocLoggingEnabled must stay false by default. Enable only when
// debugging a liveness-construction run.
const RegAllocLoggingEnabled = false

// RegAllocValidationEnabled gates the extra O(n) invariant checks run
// after finalization (ascending/non-overlapping ranges, ascending uses,
// and similar). Enabled by default until the implementation has seen
// enough fuzzing to disable it with confidence, exactly as the teacher
// keeps its own validation consts on by default.
const RegAllocValidationEnabled = true
