package viewmodel

// SkeletonVariant selects the placeholder card layout.
type SkeletonVariant string

const (
	SkeletonDefault SkeletonVariant = "default"
	SkeletonCompact SkeletonVariant = "compact"
	SkeletonGrid    SkeletonVariant = "grid"
)

// Normalize maps unknown variants to SkeletonDefault.
func (v SkeletonVariant) Normalize() SkeletonVariant {
	switch v {
	case SkeletonDefault, SkeletonCompact, SkeletonGrid:
		return v
	default:
		return SkeletonDefault
	}
}

// Skeletons returns n placeholder cards of the given variant.
func Skeletons(v SkeletonVariant, n int) []SkeletonVariant {
	if n < 0 {
		n = 0
	}
	out := make([]SkeletonVariant, n)
	v = v.Normalize()
	for i := range out {
		out[i] = v
	}
	return out
}
