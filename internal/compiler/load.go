package compiler

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/jk/internal/queryir"
)

// BuildDir loads every CUE file of the package in dir into one value.
func BuildDir(dir string) (cue.Value, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return value, nil
}

// CompileAll compiles every pipeline declared under the top-level
// "pipeline" field of root, in declaration order.
//
// With failFast it stops at the first error; otherwise it collects every
// error and returns the pipelines that compiled.
func CompileAll(root cue.Value, failFast bool) ([]queryir.Pipeline, []error) {
	var (
		pipelines []queryir.Pipeline
		errs      []error
	)

	pipelinesVal := root.LookupPath(cue.ParsePath("pipeline"))
	if !pipelinesVal.Exists() {
		return nil, nil
	}

	iter, err := pipelinesVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}
	for iter.Next() {
		p, err := CompilePipeline(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("pipeline.%s: %w", iter.Label(), err))
			if failFast {
				return pipelines, errs
			}
			continue
		}
		pipelines = append(pipelines, *p)
	}
	return pipelines, errs
}

// CompileFile compiles the pipelines of a single CUE file.
func CompileFile(path string) ([]queryir.Pipeline, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("read %s: %w", path, err)}
	}

	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	return CompileAll(v, false)
}

// CompileDir compiles the pipelines of the CUE package in dir.
func CompileDir(dir string) ([]queryir.Pipeline, []error) {
	v, err := BuildDir(dir)
	if err != nil {
		return nil, []error{err}
	}
	return CompileAll(v, false)
}

// Index maps pipeline names to pipelines and returns the sorted names.
func Index(pipelines []queryir.Pipeline) (map[string]queryir.Pipeline, []string) {
	byName := make(map[string]queryir.Pipeline, len(pipelines))
	names := make([]string, 0, len(pipelines))
	for _, p := range pipelines {
		byName[p.Name] = p
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return byName, names
}
