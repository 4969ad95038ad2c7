package scoring

// Percentage returns total/max*100 rounded half-up to two decimals. The
// rounding is done on exact integer hundredths so 0.125 becomes 0.13. A zero
// max yields 0.
func Percentage(total, max int) float64 {
	if max <= 0 {
		return 0
	}
	hundredths := (int64(total)*20000 + int64(max)) / (2 * int64(max))
	return float64(hundredths) / 100
}
