// Package gematria maps names to their cipher values. Jarvis matches the
// results against its trigger tables; nothing else consumes them.
package gematria

import "unicode"

// Master numbers survive reduction unchanged.
var masters = map[int]bool{11: true, 22: true, 33: true}

// Simple sums a=1..z=26 over the letters of s. Case and non-letters are
// ignored.
func Simple(s string) int {
	total := 0
	for _, r := range s {
		if v := letterIndex(r); v > 0 {
			total += v
		}
	}
	return total
}

// Reverse sums a=26..z=1 over the letters of s.
func Reverse(s string) int {
	total := 0
	for _, r := range s {
		if v := letterIndex(r); v > 0 {
			total += 27 - v
		}
	}
	return total
}

// Reduce collapses n to a single digit by repeated digit summing, stopping
// early on the master numbers 11, 22 and 33. Negative input reduces its
// magnitude.
func Reduce(n int) int {
	if n < 0 {
		n = -n
	}
	for n > 9 && !masters[n] {
		sum := 0
		for n > 0 {
			sum += n % 10
			n /= 10
		}
		n = sum
	}
	return n
}

// IsMaster reports whether n is one of the master numbers.
func IsMaster(n int) bool {
	return masters[n]
}

// Profile is the full cipher read for one name.
type Profile struct {
	Simple        int `json:"simple"`
	Reverse       int `json:"reverse"`
	SimpleReduced int `json:"simple_reduced"`
	ReverseRedux  int `json:"reverse_reduced"`
}

// Read computes all ciphers for s.
func Read(s string) Profile {
	simple := Simple(s)
	reverse := Reverse(s)
	return Profile{
		Simple:        simple,
		Reverse:       reverse,
		SimpleReduced: Reduce(simple),
		ReverseRedux:  Reduce(reverse),
	}
}

// Values returns every cipher value for s, unreduced and reduced, for
// trigger matching.
func (p Profile) Values() []int {
	return []int{p.Simple, p.Reverse, p.SimpleReduced, p.ReverseRedux}
}

// letterIndex returns 1..26 for ASCII letters, 0 otherwise.
func letterIndex(r rune) int {
	r = unicode.ToLower(r)
	if r < 'a' || r > 'z' {
		return 0
	}
	return int(r-'a') + 1
}
