// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads the kiln configuration file.
//
// The file is YAML. Every key is optional, missing keys keep the values from Default.
//
//	searchPath: /usr/src/recipes:/usr/local/src/recipes
//	repository: git::https://example.com/recipes.git?ref=main
//	repositoryCache: /var/cache/kiln/recipes
//	shell: [/bin/bash, --noprofile, --norc]
//	env:
//	  MAKEFLAGS: -j8
//	buildRoot: /var/tmp/kiln
//	logDir: /var/log/kiln
//	terminators: [kiln-package]
//	installedDB: /var/lib/kiln/installed.yaml
//	keepGoing: false
//	cleanup:
//	  retries: 30
//	  interval: 1s
package config
