package content

import "arf/unitspec"

// occlusionTest reports whether rear (appearing earlier in content order)
// is occluded by fore (appearing later), per spec.md section 4.8.
type occlusionTest func(rear, fore *SubjectWithContext) bool

type occlusionKey struct {
	rear *unitspec.UnitType
	fore *unitspec.UnitType // nil matches any fore type
}

var occlusionRegistry = map[occlusionKey]occlusionTest{}

func registerOcclusion(rear, fore *unitspec.UnitType, test occlusionTest) {
	occlusionRegistry[occlusionKey{rear, fore}] = test
}

func init() {
	// A StrandDiscard is always occluded by any subject that follows it.
	registerOcclusion(unitspec.StrandDiscard, nil, func(rear, fore *SubjectWithContext) bool {
		return true
	})

	// A StrandCreate is occluded by a later StrandDiscard covering its strand.
	registerOcclusion(unitspec.StrandCreate, unitspec.StrandDiscard, func(rear, fore *SubjectWithContext) bool {
		return rear.HasStrand && fore.HasDiscardRange && inRange(rear.Strand, fore.DiscardRange)
	})

	// A StrandWriteDataBlock is occluded by a later StrandDiscard covering its strand.
	registerOcclusion(unitspec.StrandWriteDataBlock, unitspec.StrandDiscard, func(rear, fore *SubjectWithContext) bool {
		return rear.HasStrand && fore.HasDiscardRange && inRange(rear.Strand, fore.DiscardRange)
	})

	// A StrandWriteDataBlock is occluded by a later write to the same strand at the same offset.
	registerOcclusion(unitspec.StrandWriteDataBlock, unitspec.StrandWriteDataBlock, func(rear, fore *SubjectWithContext) bool {
		if !rear.HasStrand || !fore.HasStrand || rear.Strand != fore.Strand {
			return false
		}
		ro, err1 := rear.Info.Piece("offset")
		fo, err2 := fore.Info.Piece("offset")
		return err1 == nil && err2 == nil && ro.(uint64) == fo.(uint64)
	})

	// A StrandCreate is occluded by a later StrandCreate of the same strand.
	registerOcclusion(unitspec.StrandCreate, unitspec.StrandCreate, func(rear, fore *SubjectWithContext) bool {
		return rear.HasStrand && fore.HasStrand && rear.Strand == fore.Strand
	})

	// A StrandWriteDataBlock is occluded by a later StrandCreate of the same
	// strand, provided the create subsumes the write's offset.
	registerOcclusion(unitspec.StrandWriteDataBlock, unitspec.StrandCreate, func(rear, fore *SubjectWithContext) bool {
		if !rear.HasStrand || !fore.HasStrand || rear.Strand != fore.Strand {
			return false
		}
		off, err1 := rear.Info.Piece("offset")
		size, err2 := fore.Info.Piece("strd-size-bytes")
		return err1 == nil && err2 == nil && off.(uint64) <= size.(uint64)
	})
}

func inRange(v uint64, r [2]uint64) bool {
	return v >= r[0] && v < r[1]
}

// occludes reports whether rear is occluded by fore.
func occludes(rear, fore *SubjectWithContext) bool {
	rt, ft := rear.Info.Type, fore.Info.Type
	if test, ok := occlusionRegistry[occlusionKey{rt, ft}]; ok && test(rear, fore) {
		return true
	}
	if test, ok := occlusionRegistry[occlusionKey{rt, nil}]; ok && test(rear, fore) {
		return true
	}
	return false
}
