package domain

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

// String returns the mark as drawn on the board; Empty draws as "".
func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// Line is one winning triple of board indices.
type Line [3]int

// Lines lists every winning line in the order Evaluate checks them.
var Lines = [8]Line{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Winner identifies the mark that completed a line and the line itself.
type Winner struct {
	Mark Cell
	Line Line
}

// Contains reports whether idx is one of the winning cells.
func (w Winner) Contains(idx int) bool {
	for _, i := range w.Line {
		if i == idx {
			return true
		}
	}
	return false
}

// Evaluate returns the first completed line of b, if any.
func Evaluate(b Board) (Winner, bool) {
	for _, ln := range Lines {
		a := b[ln[0]]
		if a != Empty && a == b[ln[1]] && a == b[ln[2]] {
			return Winner{Mark: a, Line: ln}, true
		}
	}
	return Winner{}, false
}
