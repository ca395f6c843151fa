//go:build (rp2040 || rp2350) && board_expander

package main

const profile = "pico_expander"
