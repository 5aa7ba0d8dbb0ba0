package bridge

// IllegalMask reports whether a beat's byte-valid bitmap violates the strict
// legality policy. Non-last beats must be fully valid. Last beats must carry
// a contiguous prefix of valid bytes starting at byte 0: trailing zeros after
// the prefix are legal, a hole (a cleared bit below a set bit) is not.
//
// The check is pure and has no effect on data flow; violations are surfaced
// as telemetry only.
func IllegalMask(mask uint64, beatBytes int, last bool) bool {
	m := mask & maskBytes(beatBytes)
	if !last {
		return m != maskBytes(beatBytes)
	}
	// A contiguous prefix of length k is (1<<k)-1, so m+1 is a power of two
	// and shares no bits with m. Any hole leaves a shared bit.
	return m&(m+1) != 0
}
