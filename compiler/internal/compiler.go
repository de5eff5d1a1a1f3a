package internal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	sourceExt = ".jack"
	vmExt     = ".vm"
)

// Options configures one batch compilation.
type Options struct {
	// OutDir receives the generated files. Empty means next to each source file.
	OutDir string
	// EmitTokens writes <Base>T.xml with the token trace of each unit.
	EmitTokens bool
	// EmitTrace writes <Base>.xml with the pretty printed parse trace of each unit.
	EmitTrace bool
	// AnnotateTrace adds the storage kind of resolved identifiers to the parse trace.
	AnnotateTrace bool
	// Jobs is the number of units compiled concurrently.
	Jobs int
}

func DefaultOptions() Options {
	return Options{Jobs: 1}
}

func (options Options) Validate() error {
	if options.Jobs <= 0 {
		return fmt.Errorf("jobs must be positive, got %d", options.Jobs)
	}
	return nil
}

// Compile compiles the jack file at path, or every jack file of the directory at path.
// Units are independent: a failing unit is logged, its partial output removed, and the
// remaining units still compile. The returned error joins the failures of all units.
func Compile(path string, options Options, log *logrus.Logger) error {
	if err := options.Validate(); err != nil {
		return err
	}
	files, err := collectFiles(path)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"path": path, "files": len(files)}).Debug("compiler: collected source files")
	outputs := &classOutputs{owners: map[string]string{}}
	unitErrs := make([]error, len(files))
	group := &errgroup.Group{}
	group.SetLimit(options.Jobs)
	for i, file := range files {
		i, file := i, file
		group.Go(func() error {
			unitErrs[i] = compileFile(file, options, outputs, log.WithField("file", file))
			return nil
		})
	}
	_ = group.Wait()
	return errors.Join(unitErrs...)
}

// CompileSource compiles one unit from memory, writing its vm code to sink.
func CompileSource(src io.Reader, sink io.Writer, log logrus.FieldLogger) error {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(src)
	if err != nil {
		return err
	}
	opener := func(string) (io.WriteCloser, error) {
		return nopWriteCloser{sink}, nil
	}
	return NewCompilationEngine(NewTokenStream(tokens), opener, WithLogger(log)).CompileClass()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func collectFiles(path string) ([]string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, makeCompileError(ErrResource, nil, -1, "cannot stat %s: %v", path, err)
	}
	if !stat.IsDir() {
		if !isJackFile(path) {
			return nil, makeCompileError(ErrResource, nil, -1, "%s is not a jack file", path)
		}
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, makeCompileError(ErrResource, nil, -1, "cannot read directory %s: %v", path, err)
	}
	var files []string
	for _, entry := range entries {
		// Skip not-jack file.
		if entry.IsDir() || !isJackFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	if len(files) == 0 {
		return nil, makeCompileError(ErrResource, nil, -1, "no jack file found in %s", path)
	}
	sort.Strings(files)
	return files, nil
}

func isJackFile(fileName string) bool {
	return filepath.Ext(fileName) == sourceExt
}

func outputDir(file string, options Options) string {
	if options.OutDir != "" {
		return options.OutDir
	}
	return filepath.Dir(file)
}

// classOutputs maps each vm output path of a batch to the source file that claimed it.
type classOutputs struct {
	sync.Mutex
	owners map[string]string
}

func (outputs *classOutputs) claim(path, file string) error {
	outputs.Lock()
	defer outputs.Unlock()
	if owner, ok := outputs.owners[path]; ok && owner != file {
		return fmt.Errorf("%s is already written by %s, class declared twice", path, owner)
	}
	outputs.owners[path] = file
	return nil
}

func compileFile(file string, options Options, outputs *classOutputs, log *logrus.Entry) error {
	src, err := os.ReadFile(file)
	if err != nil {
		err = makeCompileError(ErrResource, nil, -1, "cannot read %s: %v", file, err)
		log.Error(err)
		return err
	}
	dir := outputDir(file, options)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		err = makeCompileError(ErrResource, nil, -1, "cannot create output directory %s: %v", dir, err)
		log.Error(err)
		return err
	}
	base := strings.TrimSuffix(filepath.Base(file), sourceExt)
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(bytes.NewReader(src))
	if err != nil {
		log.Error(err)
		return fmt.Errorf("%s: %w", file, err)
	}
	if options.EmitTokens {
		if err := writeArtifact(filepath.Join(dir, base+"T.xml"), TokensXML(tokens), log); err != nil {
			return err
		}
	}

	var outputPath string
	opener := func(className string) (io.WriteCloser, error) {
		path := filepath.Join(dir, className+vmExt)
		if err := outputs.claim(path, file); err != nil {
			return nil, err
		}
		outputPath = path
		return os.Create(outputPath)
	}
	engineOptions := []EngineOption{WithLogger(log)}
	if options.EmitTrace {
		engineOptions = append(engineOptions, WithTrace(options.AnnotateTrace))
	}
	engine := NewCompilationEngine(NewTokenStream(tokens), opener, engineOptions...)
	if err := engine.CompileClass(); err != nil {
		// The output is partial, don't leave it around to be used.
		if outputPath != "" {
			_ = os.Remove(outputPath)
		}
		return fmt.Errorf("%s: %w", file, err)
	}
	if options.EmitTrace {
		if err := writeArtifact(filepath.Join(dir, base+".xml"), PrettyXML(engine.Trace()), log); err != nil {
			return err
		}
	}
	log.WithFields(logrus.Fields{"class": engine.ClassName(), "output": outputPath}).Info("compiler: compiled")
	return nil
}

func writeArtifact(path, content string, log *logrus.Entry) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		err = makeCompileError(ErrResource, nil, -1, "cannot write %s: %v", path, err)
		log.Error(err)
		return err
	}
	log.WithField("output", path).Debug("compiler: wrote artifact")
	return nil
}
