package sfc

// Ops32 bundles the Key32 arithmetic behind the generic Ops[K] interface
// that the tree, halo and domain packages are written against, so those
// packages need not be duplicated per key width the way the codec above
// is.
type Ops32 struct{}

func (Ops32) LMax() int                                { return LMax32 }
func (Ops32) RootRange() Key32                          { return NodeRange32(0) }
func (Ops32) NodeRange(level int) Key32                 { return NodeRange32(level) }
func (Ops32) TreeLevel(r Key32) int                     { return TreeLevel32(r) }
func (Ops32) CommonPrefixLength(a, b Key32) int         { return CommonPrefixLength32(a, b) }
func (Ops32) IsPowerOf8Range(r Key32) bool              { return IsPowerOf8Range32(r) }
func (Ops32) Less(a, b Key32) bool                      { return a < b }
func (Ops32) Sub(a, b Key32) Key32                      { return a - b }
func (Ops32) Add(a, b Key32) Key32                      { return a + b }
func (Ops32) Zero() Key32                               { return 0 }
func (Ops32) FromBox(ix, iy, iz uint64, level int) Key32 {
	return CodeFromBox32(uint32(ix), uint32(iy), uint32(iz), level)
}
func (Ops32) Decode(k Key32) (ix, iy, iz uint64) {
	x, y, z := Decode32(k)
	return uint64(x), uint64(y), uint64(z)
}
func (Ops32) Uint64(k Key32) uint64 { return uint64(k) }
func (Ops32) FromUint64(v uint64) Key32 { return Key32(v) }

// Ops64 is the Key64 analog of Ops32.
type Ops64 struct{}

func (Ops64) LMax() int                                { return LMax64 }
func (Ops64) RootRange() Key64                          { return NodeRange64(0) }
func (Ops64) NodeRange(level int) Key64                 { return NodeRange64(level) }
func (Ops64) TreeLevel(r Key64) int                     { return TreeLevel64(r) }
func (Ops64) CommonPrefixLength(a, b Key64) int         { return CommonPrefixLength64(a, b) }
func (Ops64) IsPowerOf8Range(r Key64) bool              { return IsPowerOf8Range64(r) }
func (Ops64) Less(a, b Key64) bool                      { return a < b }
func (Ops64) Sub(a, b Key64) Key64                      { return a - b }
func (Ops64) Add(a, b Key64) Key64                      { return a + b }
func (Ops64) Zero() Key64                               { return 0 }
func (Ops64) FromBox(ix, iy, iz uint64, level int) Key64 {
	return CodeFromBox64(ix, iy, iz, level)
}
func (Ops64) Decode(k Key64) (ix, iy, iz uint64) {
	return Decode64(k)
}
func (Ops64) Uint64(k Key64) uint64     { return uint64(k) }
func (Ops64) FromUint64(v uint64) Key64 { return Key64(v) }

// Ops is the interface the generic tree/halo/domain/focus packages
// program against, letting one implementation serve both the 32-bit and
// 64-bit key widths without duplicating the ~60% of the source budget
// those packages occupy.
type Ops[K any] interface {
	LMax() int
	RootRange() K
	NodeRange(level int) K
	TreeLevel(r K) int
	CommonPrefixLength(a, b K) int
	IsPowerOf8Range(r K) bool
	Less(a, b K) bool
	Sub(a, b K) K
	Add(a, b K) K
	Zero() K
	FromBox(ix, iy, iz uint64, level int) K
	Decode(k K) (ix, iy, iz uint64)
	Uint64(k K) uint64
	FromUint64(v uint64) K
}
