package importer

import (
	"github.com/gogpu/meshview/internal/workpool"
	"github.com/gogpu/meshview/mesh"
)

// Job is one asset to decode in a batch.
type Job struct {
	Source    Source
	Data      []byte
	LOD       float32
	Instances []mesh.InstanceTransform
}

// Result is the outcome of one Job.
type Result struct {
	Mesh *mesh.Mesh
	Err  error
}

// LoadAll decodes jobs on the workers of pool and returns the results in
// job order. done, when not nil, is called from the worker goroutine after
// each job and must be safe for concurrent use. Sources shared between
// jobs must be safe for concurrent use too; GLTF and Cached are.
func LoadAll(pool *workpool.Pool, jobs []Job, done func()) []Result {
	results := make([]Result, len(jobs))
	work := make([]func(), len(jobs))
	for i, job := range jobs {
		work[i] = func() {
			m, err := Load(job.Source, job.Data, job.LOD, job.Instances)
			results[i] = Result{Mesh: m, Err: err}
			if done != nil {
				done()
			}
		}
	}
	pool.Run(work)
	return results
}
