// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides byte-array primitives for ASCII nucleotide data:
// reverse-complementing, and detecting/cleaning non-ACGT(N) characters. These
// are the inner loops of k-mer canonicalization and are kept allocation-free
// so they can run once per k-mer window.
package biosimd
