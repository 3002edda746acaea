package launch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/endfield-tools/endmod/pkg/config"
	"github.com/endfield-tools/endmod/pkg/errors"
	"github.com/endfield-tools/endmod/pkg/launch"
)

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{"-force-d3d11", "-force-feature-level-11-0"}, launch.Args(config.RendererDX11))
	assert.Equal(t, []string{"-force-d3d12"}, launch.Args(config.RendererDX12))
	assert.Nil(t, launch.Args(config.RendererAuto))
	assert.Nil(t, launch.Args("anything else"))
}

func TestLaunch_RequiresExe(t *testing.T) {
	err := launch.Launch("", config.RendererAuto)
	assert.True(t, errors.IsCode(err, errors.ErrGamePath))
}

func TestLaunch_MissingExe(t *testing.T) {
	err := launch.Launch(t.TempDir()+"/nope.exe", config.RendererAuto)
	assert.True(t, errors.IsCode(err, errors.ErrGamePath))
}
