package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

const (
	stemChannels  = 16
	trunkChannels = 32
)

// residualBlock is two 3x3 same-padding convolutions with an identity skip.
type residualBlock[B tensor.Backend] struct {
	conv1 *nn.Conv2D[B]
	conv2 *nn.Conv2D[B]
	relu  *nn.ReLU[B]
}

func newResidualBlock[B tensor.Backend](channels int, backend B) *residualBlock[B] {
	return &residualBlock[B]{
		conv1: nn.NewConv2D(channels, channels, 3, 3, 1, 1, true, backend),
		conv2: nn.NewConv2D(channels, channels, 3, 3, 1, 1, true, backend),
		relu:  nn.NewReLU[B](),
	}
}

func (b *residualBlock[B]) forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	y := b.relu.Forward(b.conv1.Forward(x))
	y = b.conv2.Forward(y)
	return b.relu.Forward(x.Add(y))
}

func (b *residualBlock[B]) parameters() []*nn.Parameter[B] {
	params := b.conv1.Parameters()
	return append(params, b.conv2.Parameters()...)
}

// ResNet is a small residual network regressing one scalar per image.
//
// Architecture, for [n, C, H, W] input (H and W divisible by 4):
//
//	stem:   3x3 conv C -> 16, pad 1, ReLU
//	block1: residual block at 16 channels
//	pool:   2x2 max pool                  -> H/2 x W/2
//	trans:  3x3 conv 16 -> 32, pad 1, ReLU
//	block2: residual block at 32 channels
//	pool:   2x2 max pool                  -> H/4 x W/4
//	head:   linear 32*(H/4)*(W/4) -> 1
type ResNet[B tensor.Backend] struct {
	channels int
	height   int
	width    int
	flatSize int

	stem   *nn.Conv2D[B]
	relu   *nn.ReLU[B]
	block1 *residualBlock[B]
	pool1  *nn.MaxPool2D[B]
	trans  *nn.Conv2D[B]
	block2 *residualBlock[B]
	pool2  *nn.MaxPool2D[B]
	head   *nn.Linear[B]

	training bool
	backend  B
}

// New constructs a ResNet for channels x height x width images. All weights
// are drawn from an RNG seeded with seed, so identical seeds produce
// identical parameters.
func New[B tensor.Backend](channels, height, width int, seed int64, backend B) (*ResNet[B], error) {
	if channels <= 0 || height <= 0 || width <= 0 {
		return nil, fmt.Errorf("model: invalid input shape %dx%dx%d", channels, height, width)
	}
	if height%4 != 0 || width%4 != 0 {
		return nil, fmt.Errorf("model: height and width must be divisible by 4 (got %dx%d)", height, width)
	}

	flatSize := trunkChannels * (height / 4) * (width / 4)
	m := &ResNet[B]{
		channels: channels,
		height:   height,
		width:    width,
		flatSize: flatSize,
		stem:     nn.NewConv2D(channels, stemChannels, 3, 3, 1, 1, true, backend),
		relu:     nn.NewReLU[B](),
		block1:   newResidualBlock[B](stemChannels, backend),
		pool1:    nn.NewMaxPool2D(2, 2, backend),
		trans:    nn.NewConv2D(stemChannels, trunkChannels, 3, 3, 1, 1, true, backend),
		block2:   newResidualBlock[B](trunkChannels, backend),
		pool2:    nn.NewMaxPool2D(2, 2, backend),
		head:     nn.NewLinear[B](flatSize, 1, backend),
		training: true,
		backend:  backend,
	}
	m.reinitialize(seed)
	return m, nil
}

// reinitialize overwrites every parameter from a private seeded RNG:
// Xavier-uniform weights, zero biases. Layer constructors already
// initialized from the global RNG; this replaces that with a reproducible
// draw without touching process-wide state.
func (m *ResNet[B]) reinitialize(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for _, param := range m.Parameters() {
		data := param.Tensor().Data()
		shape := param.Tensor().Shape()
		var fanIn, fanOut int
		switch len(shape) {
		case 4: // conv weight [out, in, kh, kw]
			fanIn = shape[1] * shape[2] * shape[3]
			fanOut = shape[0] * shape[2] * shape[3]
		case 2: // linear weight [out, in]
			fanIn = shape[1]
			fanOut = shape[0]
		default: // bias
			for i := range data {
				data[i] = 0
			}
			continue
		}
		bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
		for i := range data {
			data[i] = float32((rng.Float64()*2 - 1) * bound)
		}
	}
}

// Train puts the model into training mode.
func (m *ResNet[B]) Train() { m.training = true }

// Eval puts the model into evaluation mode.
func (m *ResNet[B]) Eval() { m.training = false }

// Training reports whether the model is in training mode.
func (m *ResNet[B]) Training() bool { return m.training }

// FlatSize returns the number of features entering the linear head.
func (m *ResNet[B]) FlatSize() int { return m.flatSize }

// Forward maps an image batch to one prediction per image, shape [n, 1].
// Accepts [n, C, H, W] or flattened [n, C*H*W] input.
func (m *ResNet[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	switch len(shape) {
	case 4:
	case 2:
		input = input.Reshape(shape[0], m.channels, m.height, m.width)
	default:
		panic(fmt.Sprintf("model: expected 2D or 4D input, got %dD", len(shape)))
	}

	x := m.relu.Forward(m.stem.Forward(input))
	x = m.block1.forward(x)
	x = m.pool1.Forward(x)
	x = m.relu.Forward(m.trans.Forward(x))
	x = m.block2.forward(x)
	x = m.pool2.Forward(x)

	batch := x.Shape()[0]
	x = x.Reshape(batch, m.flatSize)
	return m.head.Forward(x)
}

// Parameters returns all trainable parameters in a fixed order.
func (m *ResNet[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 14)
	params = append(params, m.stem.Parameters()...)
	params = append(params, m.block1.parameters()...)
	params = append(params, m.trans.Parameters()...)
	params = append(params, m.block2.parameters()...)
	params = append(params, m.head.Parameters()...)
	return params
}

// StateDict exports all parameters under layer-prefixed names.
func (m *ResNet[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for name, param := range m.namedParameters() {
		state[name] = param.Tensor().Raw()
	}
	return state
}

// LoadStateDict restores all parameters from a state dictionary produced by
// StateDict.
func (m *ResNet[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for name, param := range m.namedParameters() {
		raw, ok := state[name]
		if !ok {
			return fmt.Errorf("model: missing %s in state dict", name)
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("model: %s shape mismatch: expected %v, got %v",
				name, param.Tensor().Shape(), raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("model: %s dtype mismatch: expected float32, got %v", name, raw.DType())
		}
		copy(param.Tensor().Data(), raw.AsFloat32())
	}
	return nil
}

func (m *ResNet[B]) namedParameters() map[string]*nn.Parameter[B] {
	named := make(map[string]*nn.Parameter[B], 14)
	add := func(prefix string, params []*nn.Parameter[B]) {
		// Layer Parameters() order is [weight, bias].
		named[prefix+".weight"] = params[0]
		if len(params) > 1 {
			named[prefix+".bias"] = params[1]
		}
	}
	add("stem", m.stem.Parameters())
	add("block1.conv1", m.block1.conv1.Parameters())
	add("block1.conv2", m.block1.conv2.Parameters())
	add("trans", m.trans.Parameters())
	add("block2.conv1", m.block2.conv1.Parameters())
	add("block2.conv2", m.block2.conv2.Parameters())
	add("head", m.head.Parameters())
	return named
}
