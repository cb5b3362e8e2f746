//go:build (rp2040 || rp2350) && board_pico_bench

package platform

const BoardName = "pico-bench"
