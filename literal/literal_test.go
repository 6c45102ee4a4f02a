package literal

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Station-Manager/iocdi/v2"
)

const yamlDoc = `
workingdir: /srv/from-yaml
LogDir: /var/log/app
server:
  listen: ":8080"
`

type config struct {
	WorkingDir string `di.inject:"WorkingDir"`
	LogDir     string `di.inject:"LogDir"`
}

var stringType = reflect.TypeOf("")

func TestFromKoanf_YAML(t *testing.T) {
	k, err := Load(Config{YAML: []byte(yamlDoc)})
	require.NoError(t, err)
	p, err := FromKoanf(k)
	require.NoError(t, err)

	v, found, err := p("workingdir", stringType)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "/srv/from-yaml", v)

	// Bean ids arrive lower-cased; keys match regardless of case.
	v, found, err = p("logdir", stringType)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "/var/log/app", v)

	v, found, err = p("server.listen", stringType)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, ":8080", v)

	_, found, err = p("missing", stringType)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFromKoanf_IgnoresNonStringTargets(t *testing.T) {
	k, err := Load(Config{YAML: []byte(yamlDoc)})
	require.NoError(t, err)
	p, err := FromKoanf(k)
	require.NoError(t, err)

	_, found, err := p("workingdir", reflect.TypeOf(0))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFromKoanf_NilKoanf(t *testing.T) {
	_, err := FromKoanf(nil)
	require.ErrorIs(t, err, ErrKoanfIsNil)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("LITERALTEST_WORKINGDIR", "/srv/from-env")
	t.Setenv("LITERALTEST_SERVER__LISTEN", ":9090")

	k, err := Load(Config{YAML: []byte(yamlDoc), EnvPrefix: "LITERALTEST_"})
	require.NoError(t, err)

	assert.Equal(t, "/srv/from-env", k.String("workingdir"))
	assert.Equal(t, ":9090", k.String("server.listen"))
	assert.Equal(t, "/var/log/app", k.String("LogDir"))
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(Config{YAML: []byte("a: [unterminated")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load yaml literals")
}

func TestInstall_InjectsIntoContainer(t *testing.T) {
	t.Cleanup(func() { iocdi.SetLiteralProvider(nil) })
	t.Setenv("LITERALTEST_WORKINGDIR", "/srv/from-env")

	require.NoError(t, Install(Config{YAML: []byte(yamlDoc), EnvPrefix: "LITERALTEST_"}))

	c := iocdi.New()
	require.NoError(t, c.Register("Config", reflect.TypeOf((*config)(nil))))

	cfg, err := iocdi.ResolveAs[*config](c, "Config")
	require.NoError(t, err)
	assert.Equal(t, "/srv/from-env", cfg.WorkingDir)
	assert.Equal(t, "/var/log/app", cfg.LogDir)
}
