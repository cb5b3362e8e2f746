//go:build (rp2040 || rp2350) && !board_pico_bench

package platform

// BoardName selects the embedded config overlay.
const BoardName = "pico"
