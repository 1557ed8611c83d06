package bloom

import (
	"math"

	"github.com/tanema/gween/ease"
)

// EaseFunc maps normalized time (0..1) to normalized progress. Every
// built-in satisfies f(0) == 0 and f(1) == 1.
type EaseFunc func(t float64) float64

// Default parameters of the parameterized families.
const (
	DefaultBackOvershoot    = 1.70158
	DefaultElasticAmplitude = 1.0
)

// FromGween adapts a gween easing function to an EaseFunc.
func FromGween(fn ease.TweenFunc) EaseFunc {
	return func(t float64) float64 {
		return float64(fn(float32(t), 0, 1, 1))
	}
}

// Linear is the identity curve.
func Linear(t float64) float64 { return t }

// Polynomial families.

func QuadIn(t float64) float64  { return t * t }
func QuadOut(t float64) float64 { return -t * (t - 2) }
func QuadInOut(t float64) float64 {
	t *= 2
	if t < 1 {
		return 0.5 * t * t
	}
	t--
	return -0.5 * (t*(t-2) - 1)
}

func CubicIn(t float64) float64 { return t * t * t }
func CubicOut(t float64) float64 {
	t--
	return t*t*t + 1
}
func CubicInOut(t float64) float64 {
	t *= 2
	if t < 1 {
		return 0.5 * t * t * t
	}
	t -= 2
	return 0.5 * (t*t*t + 2)
}

func QuartIn(t float64) float64 { return t * t * t * t }
func QuartOut(t float64) float64 {
	t--
	return -(t*t*t*t - 1)
}
func QuartInOut(t float64) float64 {
	t *= 2
	if t < 1 {
		return 0.5 * t * t * t * t
	}
	t -= 2
	return -0.5 * (t*t*t*t - 2)
}

func QuintIn(t float64) float64 { return t * t * t * t * t }
func QuintOut(t float64) float64 {
	t--
	return t*t*t*t*t + 1
}
func QuintInOut(t float64) float64 {
	t *= 2
	if t < 1 {
		return 0.5 * t * t * t * t * t
	}
	t -= 2
	return 0.5 * (t*t*t*t*t + 2)
}

// Sine family.

func SineIn(t float64) float64    { return 1 - math.Cos(t*math.Pi/2) }
func SineOut(t float64) float64   { return math.Sin(t * math.Pi / 2) }
func SineInOut(t float64) float64 { return -0.5 * (math.Cos(math.Pi*t) - 1) }

// Exponential family. The endpoints are pinned exactly.

func ExpoIn(t float64) float64 {
	if t == 0 {
		return 0
	}
	return math.Pow(2, 10*(t-1))
}
func ExpoOut(t float64) float64 {
	if t == 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*t)
}
func ExpoInOut(t float64) float64 {
	if t == 0 {
		return 0
	}
	if t == 1 {
		return 1
	}
	t *= 2
	if t < 1 {
		return 0.5 * math.Pow(2, 10*(t-1))
	}
	t--
	return 0.5 * (2 - math.Pow(2, -10*t))
}

// Circular family.

func CircIn(t float64) float64 { return -(math.Sqrt(1-t*t) - 1) }
func CircOut(t float64) float64 {
	t--
	return math.Sqrt(1 - t*t)
}
func CircInOut(t float64) float64 {
	t *= 2
	if t < 1 {
		return -0.5 * (math.Sqrt(1-t*t) - 1)
	}
	t -= 2
	return 0.5 * (math.Sqrt(1-t*t) + 1)
}

// Elastic family, parameterized by amplitude (values below 1 behave as 1).

var (
	ElasticIn    = ElasticInWith(DefaultElasticAmplitude)
	ElasticOut   = ElasticOutWith(DefaultElasticAmplitude)
	ElasticInOut = ElasticInOutWith(DefaultElasticAmplitude)
)

func elasticShape(amplitude, period float64) (a, s float64) {
	if amplitude < 1 {
		return 1, period / 4
	}
	return amplitude, period / (2 * math.Pi) * math.Asin(1/amplitude)
}

// ElasticInWith returns an elastic-in curve with the given amplitude.
func ElasticInWith(amplitude float64) EaseFunc {
	const p = 0.3
	a, s := elasticShape(amplitude, p)
	return func(t float64) float64 {
		if t == 0 || t == 1 {
			return t
		}
		t--
		return -(a * math.Pow(2, 10*t) * math.Sin((t-s)*(2*math.Pi)/p))
	}
}

// ElasticOutWith returns an elastic-out curve with the given amplitude.
func ElasticOutWith(amplitude float64) EaseFunc {
	const p = 0.3
	a, s := elasticShape(amplitude, p)
	return func(t float64) float64 {
		if t == 0 || t == 1 {
			return t
		}
		return a*math.Pow(2, -10*t)*math.Sin((t-s)*(2*math.Pi)/p) + 1
	}
}

// ElasticInOutWith returns an elastic-in-out curve with the given amplitude.
func ElasticInOutWith(amplitude float64) EaseFunc {
	const p = 0.3 * 1.5
	a, s := elasticShape(amplitude, p)
	return func(t float64) float64 {
		if t == 0 || t == 1 {
			return t
		}
		t = t*2 - 1
		if t < 0 {
			return -0.5 * (a * math.Pow(2, 10*t) * math.Sin((t-s)*(2*math.Pi)/p))
		}
		return a*math.Pow(2, -10*t)*math.Sin((t-s)*(2*math.Pi)/p)*0.5 + 1
	}
}

// Back family, parameterized by overshoot.

var (
	BackIn    = BackInWith(DefaultBackOvershoot)
	BackOut   = BackOutWith(DefaultBackOvershoot)
	BackInOut = BackInOutWith(DefaultBackOvershoot)
)

// BackInWith returns a back-in curve with the given overshoot.
func BackInWith(s float64) EaseFunc {
	return func(t float64) float64 {
		return t * t * ((s+1)*t - s)
	}
}

// BackOutWith returns a back-out curve with the given overshoot.
func BackOutWith(s float64) EaseFunc {
	return func(t float64) float64 {
		t--
		return t*t*((s+1)*t+s) + 1
	}
}

// BackInOutWith returns a back-in-out curve with the given overshoot.
func BackInOutWith(s float64) EaseFunc {
	s *= 1.525
	return func(t float64) float64 {
		t *= 2
		if t < 1 {
			return 0.5 * (t * t * ((s+1)*t - s))
		}
		t -= 2
		return 0.5 * (t*t*((s+1)*t+s) + 2)
	}
}

// Bounce family.

func BounceOut(t float64) float64 {
	switch {
	case t < 1/2.75:
		return 7.5625 * t * t
	case t < 2/2.75:
		t -= 1.5 / 2.75
		return 7.5625*t*t + 0.75
	case t < 2.5/2.75:
		t -= 2.25 / 2.75
		return 7.5625*t*t + 0.9375
	default:
		t -= 2.625 / 2.75
		return 7.5625*t*t + 0.984375
	}
}
func BounceIn(t float64) float64 { return 1 - BounceOut(1-t) }
func BounceInOut(t float64) float64 {
	if t < 0.5 {
		return BounceIn(t*2) * 0.5
	}
	return BounceOut(t*2-1)*0.5 + 0.5
}

// easeByName backs EaseByName; keys match the manifest/config spelling.
var easeByName = map[string]EaseFunc{
	"linear":       Linear,
	"quadIn":       QuadIn,
	"quadOut":      QuadOut,
	"quadInOut":    QuadInOut,
	"cubicIn":      CubicIn,
	"cubicOut":     CubicOut,
	"cubicInOut":   CubicInOut,
	"quartIn":      QuartIn,
	"quartOut":     QuartOut,
	"quartInOut":   QuartInOut,
	"quintIn":      QuintIn,
	"quintOut":     QuintOut,
	"quintInOut":   QuintInOut,
	"sineIn":       SineIn,
	"sineOut":      SineOut,
	"sineInOut":    SineInOut,
	"expoIn":       ExpoIn,
	"expoOut":      ExpoOut,
	"expoInOut":    ExpoInOut,
	"circIn":       CircIn,
	"circOut":      CircOut,
	"circInOut":    CircInOut,
	"elasticIn":    ElasticIn,
	"elasticOut":   ElasticOut,
	"elasticInOut": ElasticInOut,
	"backIn":       BackIn,
	"backOut":      BackOut,
	"backInOut":    BackInOut,
	"bounceIn":     BounceIn,
	"bounceOut":    BounceOut,
	"bounceInOut":  BounceInOut,
}

// EaseByName returns the named built-in curve ("cubicOut", "bounceIn", ...).
func EaseByName(name string) (EaseFunc, bool) {
	fn, ok := easeByName[name]
	return fn, ok
}
