// Copyright 2021 The hydra Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package cache provides a process-local response cache whose Get and Set
methods fit the cache hooks of a Hydra.

	c := cache.New()
	h.SetCacheGetter(c.Get)
	h.SetCacheSetter(c.Set)

Entries are keyed by request.Request.CacheKey and expire after the
CacheTimeout of the request whose response was stored.
*/
package cache
