// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lynx Core Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getlynx/chainstored/configuration"
)

type testConfiguration struct {
	Chain    string `gluamapper:"chain"`
	DataDir  string `gluamapper:"data_directory"`
	Interval int    `gluamapper:"interval"`
}

const luaSource = `
local M = {}

M.chain = "testing"
M.data_directory = arg[0] .. ".d"
M.interval = 30

return M
`

func TestParseConfigurationFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration")
	assert.Nil(t, err, "temp dir")
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "test.conf")
	err = ioutil.WriteFile(fileName, []byte(luaSource), 0600)
	assert.Nil(t, err, "write")

	config := &testConfiguration{}
	err = configuration.ParseConfigurationFile(fileName, config)
	assert.Nil(t, err, "parse")

	assert.Equal(t, "testing", config.Chain, "wrong chain")
	assert.Equal(t, fileName+".d", config.DataDir, "wrong data directory")
	assert.Equal(t, 30, config.Interval, "wrong interval")
}

func TestParseMissingFile(t *testing.T) {
	config := &testConfiguration{}
	err := configuration.ParseConfigurationFile("no-such-file.conf", config)
	assert.NotNil(t, err, "missing file did not error")
}
