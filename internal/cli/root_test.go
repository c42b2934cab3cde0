package cli

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/cli/auth"
	"github.com/coursehub/coursehub/internal/cli/commands"
	"github.com/coursehub/coursehub/internal/cli/userconfig"
	"github.com/coursehub/coursehub/internal/config"
	"github.com/coursehub/coursehub/internal/server"
)

// scriptedPrompter answers prompts from fixed values
type scriptedPrompter struct {
	role     int
	inputs   map[string]string
	password string
	confirm  bool
	asked    []string
}

func (p *scriptedPrompter) Select(label string, items []string) (int, error) {
	p.asked = append(p.asked, label)
	return p.role, nil
}

func (p *scriptedPrompter) Input(label string) (string, error) {
	p.asked = append(p.asked, label)
	v, ok := p.inputs[label]
	if !ok {
		return "", fmt.Errorf("unexpected prompt %q", label)
	}
	return v, nil
}

func (p *scriptedPrompter) Password(label string) (string, error) {
	p.asked = append(p.asked, label)
	return p.password, nil
}

func (p *scriptedPrompter) Confirm(question string) (bool, error) {
	p.asked = append(p.asked, question)
	return p.confirm, nil
}

type env struct {
	tokens   *auth.Memory
	prompter *scriptedPrompter
	out      *bytes.Buffer
}

// setupEnv starts a dev backend and writes a coursehub.json pointing at it
func setupEnv(t *testing.T) *env {
	t.Helper()

	srv, err := server.New(config.DevAPIConfig{
		DatabaseURL:   filepath.Join(t.TempDir(), "cli.sqlite"),
		JWTSecret:     "cli-secret",
		TokenTTL:      time.Hour,
		RefreshWindow: time.Minute,
	}, zerolog.Nop(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	body := fmt.Sprintf(`{"servers": [{"alias": "test", "url": %q}]}`, ts.URL+"/api")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coursehub.json"), []byte(body), 0644))
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COURSEHUB_REGISTER_MODE", "")

	return &env{
		tokens:   auth.NewMemory(),
		prompter: &scriptedPrompter{inputs: map[string]string{}},
		out:      &bytes.Buffer{},
	}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	e.out.Reset()

	cmd := NewRootCmd(&commands.Deps{
		Tokens:   e.tokens,
		Prompter: e.prompter,
		Out:      e.out,
		Err:      &bytes.Buffer{},
		NoColor:  true,
		Version:  "test",
	})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return e.out.String(), err
}

func (e *env) signUp(t *testing.T, role, username string) {
	t.Helper()
	_, err := e.run(t, "register", "--role", role, "-u", username, "--email", username+"@example.com", "--password", "secret1")
	require.NoError(t, err)
	_, err = e.run(t, "login", "--role", role, "-u", username, "--password", "secret1")
	require.NoError(t, err)
}

func TestVersion(t *testing.T) {
	e := &env{tokens: auth.NewMemory(), prompter: &scriptedPrompter{}, out: &bytes.Buffer{}}
	out, err := e.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "coursehub version test\n", out)
}

func TestGuard_RedirectsToLogin(t *testing.T) {
	e := setupEnv(t)

	for _, args := range [][]string{{"whoami"}, {"courses"}, {"enroll", "1"}, {"teach", "list"}} {
		_, err := e.run(t, args...)
		assert.ErrorIs(t, err, commands.ErrLoginRequired, "%v", args)
	}
}

func TestLoginFlow(t *testing.T) {
	e := setupEnv(t)

	out, err := e.run(t, "register", "--role", "student", "-u", "ann", "--email", "ann@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Registered, please log in")

	_, err = e.run(t, "whoami")
	assert.ErrorIs(t, err, commands.ErrLoginRequired, "manual register mode does not log in")

	e.prompter.role = 0
	e.prompter.inputs["Username"] = "ann"
	e.prompter.password = "secret1"
	out, err = e.run(t, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged in")
	assert.Contains(t, out, "User: ann (student)")
	assert.Equal(t, []string{"I am a", "Username", "Password"}, e.prompter.asked)

	lastRole, err := userconfig.LastRole("test")
	require.NoError(t, err)
	assert.Equal(t, "student", lastRole)

	out, err = e.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "User:  ann")
	assert.Contains(t, out, "Role:  student")

	// a new process holds only the token, so the public login route proceeds
	out, err = e.run(t, "login", "--role", "student", "-u", "ann", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged in")

	out, err = e.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged out")

	_, err = e.run(t, "whoami")
	assert.ErrorIs(t, err, commands.ErrLoginRequired)
}

func TestLogin_Rejected(t *testing.T) {
	e := setupEnv(t)

	out, err := e.run(t, "login", "--role", "teacher", "-u", "nobody", "--password", "x")
	require.Error(t, err)
	assert.True(t, commands.IsReported(err))
	assert.Contains(t, out, "✗ Invalid username or password")

	out, err = e.run(t, "login", "--role", "admin", "-u", "nobody", "--password", "x")
	require.Error(t, err)
	assert.True(t, commands.IsReported(err))
	assert.Contains(t, out, "! Please select")
}

func TestRegister_AutoModeFromProjectFile(t *testing.T) {
	e := setupEnv(t)

	data, err := os.ReadFile("coursehub.json")
	require.NoError(t, err)
	data = bytes.Replace(data, []byte(`]}`), []byte(`], "register_mode": "auto"}`), 1)
	require.NoError(t, os.WriteFile("coursehub.json", data, 0644))

	out, err := e.run(t, "register", "--role", "teacher", "-u", "tom", "--email", "tom@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged in")

	_, err = e.run(t, "whoami")
	assert.NoError(t, err)
}

func TestCourseCommands(t *testing.T) {
	e := setupEnv(t)

	e.signUp(t, "teacher", "tom")
	out, err := e.run(t, "teach", "create", "--name", "Compilers", "--description", "parsing", "--capacity", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Course created")

	out, err = e.run(t, "teach", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Compilers")
	assert.Contains(t, out, "0/2")

	_, err = e.run(t, "courses")
	assert.EqualError(t, err, "this command is only available to students")

	_, err = e.run(t, "logout")
	require.NoError(t, err)

	e.signUp(t, "student", "ann")
	out, err = e.run(t, "courses")
	require.NoError(t, err)
	assert.Contains(t, out, "Compilers")
	assert.Contains(t, out, "tom")

	out, err = e.run(t, "enroll", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Enrolled")

	out, err = e.run(t, "enroll", "1")
	require.Error(t, err)
	assert.Contains(t, out, "✗ already enrolled in this course")

	out, err = e.run(t, "my-courses")
	require.NoError(t, err)
	assert.Contains(t, out, "Compilers")

	e.prompter.confirm = false
	out, err = e.run(t, "drop", "1")
	require.NoError(t, err, "declining is not an error")
	assert.NotContains(t, out, "dropped")

	out, err = e.run(t, "drop", "1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Course dropped")

	out, err = e.run(t, "my-courses")
	require.NoError(t, err)
	assert.Contains(t, out, "You are not enrolled in any course.")

	_, err = e.run(t, "enroll", "abc")
	assert.EqualError(t, err, `invalid course id "abc"`)

	_, err = e.run(t, "teach", "list")
	assert.EqualError(t, err, "this command is only available to teachers")
}

func TestTeachStudentsAndDelete(t *testing.T) {
	e := setupEnv(t)

	e.signUp(t, "student", "ann")
	e.run(t, "logout")

	e.signUp(t, "teacher", "tom")
	_, err := e.run(t, "teach", "create", "--name", "Go")
	require.NoError(t, err)
	e.run(t, "logout")

	e.run(t, "login", "--role", "student", "-u", "ann", "--password", "secret1")
	_, err = e.run(t, "enroll", "1")
	require.NoError(t, err)
	e.run(t, "logout")

	e.run(t, "login", "--role", "teacher", "-u", "tom", "--password", "secret1")
	out, err := e.run(t, "teach", "students", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Students in Go (1)")
	assert.Contains(t, out, "ann@example.com")

	e.prompter.inputs["Course name"] = ""
	out, err = e.run(t, "teach", "create", "--capacity", "5")
	require.Error(t, err)
	assert.True(t, commands.IsReported(err))
	assert.Contains(t, out, "! Name is required")

	e.prompter.confirm = true
	out, err = e.run(t, "teach", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Course deleted")

	out, err = e.run(t, "teach", "students", "1")
	require.Error(t, err)
	assert.Contains(t, out, "✗ course not found")
}

func TestStaleTokenIsCleared(t *testing.T) {
	e := setupEnv(t)
	require.NoError(t, e.tokens.SaveToken("test", "stale"))

	_, err := e.run(t, "whoami")
	assert.ErrorIs(t, err, commands.ErrLoginRequired)

	_, err = e.tokens.LoadToken("test")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("chdir: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("chdir: restoring %s: %v", prev, err)
		}
	})
}
