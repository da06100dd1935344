// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies transport errors as transient or
// non-transient. The scheduler's transport uses it to derive response
// return codes (in particular to tell a connect timeout from a timeout
// that struck after the connection was up), and the metrics package
// uses category names as label values.
//
// Package transient depends only on the standard library.
package transient
