package model

// Kernel selects which baseline metrics a retrain starts from.
type Kernel string

const (
	KernelRBF     Kernel = "rbf"
	KernelLinear  Kernel = "linear"
	KernelPoly    Kernel = "poly"
	KernelSigmoid Kernel = "sigmoid"
)

// DefaultKernel is active until a retrain or a persisted state says otherwise.
const DefaultKernel = KernelRBF

// Baselines are the fixed per-kernel metrics that jitter is applied to.
var Baselines = map[Kernel]Metrics{
	KernelRBF:     {Accuracy: 0.92, Precision: 0.89, Recall: 0.91, F1Score: 0.90},
	KernelLinear:  {Accuracy: 0.88, Precision: 0.85, Recall: 0.87, F1Score: 0.86},
	KernelPoly:    {Accuracy: 0.90, Precision: 0.87, Recall: 0.89, F1Score: 0.88},
	KernelSigmoid: {Accuracy: 0.85, Precision: 0.82, Recall: 0.84, F1Score: 0.83},
}

// Kernels lists the known kernels in a stable order.
var Kernels = []Kernel{KernelRBF, KernelLinear, KernelPoly, KernelSigmoid}

// IsKnown reports whether k has a baseline.
func (k Kernel) IsKnown() bool {
	_, ok := Baselines[k]
	return ok
}
