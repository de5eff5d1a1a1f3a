package internal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mainSource = `// Entry point.
class Main {
    function void main() {
        do Output.printInt(1 + 2);
        return;
    }
}
`
	brokenSource = `class Broken {
    function void main() {
        let undeclared = 1;
        return;
    }
}
`
	squareSource = `class Square {
    field int size;
    constructor Square new(int s) { let size = s; return this; }
    method int area() { return size * size; }
}
`
)

const mainVM = `function Main.main 0
push constant 1
push constant 2
add
call Output.printInt 1
pop temp 0
push constant 0
return
`

func writeSources(t *testing.T, sources map[string]string) string {
	dir := t.TempDir()
	for name, content := range sources {
		require.Nil(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestCompile_SingleFile(t *testing.T) {
	dir := writeSources(t, map[string]string{"Main.jack": mainSource})
	log, hook := test.NewNullLogger()
	err := Compile(filepath.Join(dir, "Main.jack"), DefaultOptions(), log)
	require.Nil(t, err)
	output, err := os.ReadFile(filepath.Join(dir, "Main.vm"))
	require.Nil(t, err)
	assert.Equal(t, mainVM, string(output))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "Main", hook.LastEntry().Data["class"])
	assert.NoFileExists(t, filepath.Join(dir, "MainT.xml"))
	assert.NoFileExists(t, filepath.Join(dir, "Main.xml"))
}

func TestCompile_DirectoryContinuesAfterFailure(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"Main.jack":   mainSource,
		"Broken.jack": brokenSource,
		"Square.jack": squareSource,
		"notes.txt":   "not jack",
	})
	log, hook := test.NewNullLogger()
	err := Compile(dir, DefaultOptions(), log)
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrName))
	assert.False(t, errors.Is(err, ErrSyntax))
	assert.Contains(t, err.Error(), "Broken.jack")

	assert.FileExists(t, filepath.Join(dir, "Main.vm"))
	assert.FileExists(t, filepath.Join(dir, "Square.vm"))
	assert.NoFileExists(t, filepath.Join(dir, "Broken.vm"))

	var failures int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			failures++
			assert.Equal(t, "Broken", entry.Data["class"])
			assert.Equal(t, filepath.Join(dir, "Broken.jack"), entry.Data["file"])
		}
	}
	assert.Equal(t, 1, failures)
}

func TestCompile_Artifacts(t *testing.T) {
	dir := writeSources(t, map[string]string{"Main.jack": mainSource})
	outDir := filepath.Join(t.TempDir(), "build")
	log, _ := test.NewNullLogger()
	options := DefaultOptions()
	options.OutDir = outDir
	options.EmitTokens = true
	options.EmitTrace = true
	require.Nil(t, Compile(dir, options, log))

	output, err := os.ReadFile(filepath.Join(outDir, "Main.vm"))
	require.Nil(t, err)
	assert.Equal(t, mainVM, string(output))
	assert.NoFileExists(t, filepath.Join(dir, "Main.vm"))

	tokens, err := os.ReadFile(filepath.Join(outDir, "MainT.xml"))
	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(string(tokens), "<tokens>\n<keyword>class</keyword>\n<identifier>Main</identifier>\n"))

	trace, err := os.ReadFile(filepath.Join(outDir, "Main.xml"))
	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(string(trace), "<class>\n  <keyword>class</keyword>\n  <identifier>Main</identifier>\n"))
	assert.Contains(t, string(trace), "\n        <doStatement>\n")
	assert.True(t, strings.HasSuffix(string(trace), "</class>\n"))
}

func TestCompile_Jobs(t *testing.T) {
	sources := map[string]string{}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		sources[name+".jack"] = strings.ReplaceAll(squareSource, "Square", name)
	}
	dir := writeSources(t, sources)
	log, _ := test.NewNullLogger()
	options := DefaultOptions()
	options.Jobs = 3
	require.Nil(t, Compile(dir, options, log))
	for name := range sources {
		output, err := os.ReadFile(filepath.Join(dir, strings.TrimSuffix(name, sourceExt)+vmExt))
		require.Nil(t, err, name)
		assert.True(t, strings.HasPrefix(string(output), "function "+strings.TrimSuffix(name, sourceExt)+".new 0\n"), name)
	}
}

func TestCompile_ResourceErrors(t *testing.T) {
	log, _ := test.NewNullLogger()
	empty := t.TempDir()
	notJack := writeSources(t, map[string]string{"README.md": "# readme"})

	testData := []string{
		filepath.Join(empty, "missing"),
		empty,
		notJack,
		filepath.Join(notJack, "README.md"),
	}
	for _, path := range testData {
		err := Compile(path, DefaultOptions(), log)
		assert.True(t, errors.Is(err, ErrResource), path)
	}
}

func TestCompile_ScanErrorRemovesNothing(t *testing.T) {
	dir := writeSources(t, map[string]string{"Bad.jack": "class Bad { /* never closed"})
	log, _ := test.NewNullLogger()
	err := Compile(dir, DefaultOptions(), log)
	assert.True(t, errors.Is(err, ErrScan))
	assert.NoFileExists(t, filepath.Join(dir, "Bad.vm"))
}

func TestOptions_Validate(t *testing.T) {
	assert.Nil(t, DefaultOptions().Validate())
	options := DefaultOptions()
	options.Jobs = 0
	assert.NotNil(t, options.Validate())
	log, _ := test.NewNullLogger()
	assert.NotNil(t, Compile(t.TempDir(), options, log))
}

func TestCompileSource(t *testing.T) {
	log, _ := test.NewNullLogger()
	sink := &bytes.Buffer{}
	require.Nil(t, CompileSource(strings.NewReader(mainSource), sink, log))
	assert.Equal(t, mainVM, sink.String())

	err := CompileSource(strings.NewReader(`class Main { let`), &bytes.Buffer{}, log)
	assert.True(t, errors.Is(err, ErrSyntax))
	err = CompileSource(strings.NewReader(`class Main { "open`), &bytes.Buffer{}, log)
	assert.True(t, errors.Is(err, ErrScan))
}

func TestCompile_DuplicateClass(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"A.jack": mainSource,
		"B.jack": mainSource,
	})
	log, hook := test.NewNullLogger()
	options := DefaultOptions()
	options.Jobs = 2
	err := Compile(dir, options, log)
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrResource))
	assert.Contains(t, err.Error(), "class declared twice")

	output, readErr := os.ReadFile(filepath.Join(dir, "Main.vm"))
	require.Nil(t, readErr)
	assert.Equal(t, mainVM, string(output))

	var failures int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			failures++
		}
	}
	assert.Equal(t, 1, failures)
}

func TestClassOutputs_claim(t *testing.T) {
	outputs := &classOutputs{owners: map[string]string{}}
	assert.Nil(t, outputs.claim("out/Main.vm", "a/Main.jack"))
	assert.Nil(t, outputs.claim("out/Main.vm", "a/Main.jack"))
	assert.NotNil(t, outputs.claim("out/Main.vm", "b/Main.jack"))
	assert.Nil(t, outputs.claim("out/Game.vm", "b/Main.jack"))
}
