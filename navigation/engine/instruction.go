package engine

import (
	"fmt"
	"strings"
	"unicode"
)

// Instruction is one atomic robot command
type Instruction uint8

const (
	Left Instruction = iota
	Right
	Move
)

// ParseInstruction converts L, R or M (any case) into an Instruction
func ParseInstruction(c rune) (Instruction, error) {
	switch unicode.ToUpper(c) {
	case 'L':
		return Left, nil
	case 'R':
		return Right, nil
	case 'M':
		return Move, nil
	}
	return 0, fmt.Errorf("%w: invalid instruction %q", ErrInvalidValue, c)
}

// Char returns the single-letter form (L, R, M)
func (i Instruction) Char() rune {
	switch i {
	case Left:
		return 'L'
	case Right:
		return 'R'
	case Move:
		return 'M'
	}
	return '?'
}

func (i Instruction) String() string {
	return string(i.Char())
}

// InstructionSequence is an immutable, validated robot program
type InstructionSequence struct {
	value []Instruction
}

// NewInstructionSequence builds a sequence from already validated instructions
func NewInstructionSequence(instructions []Instruction) (InstructionSequence, error) {
	for idx, ins := range instructions {
		if ins > Move {
			return InstructionSequence{}, fmt.Errorf("%w: instruction %d at index %d", ErrInvalidValue, uint8(ins), idx)
		}
	}
	value := make([]Instruction, len(instructions))
	copy(value, instructions)
	return InstructionSequence{value: value}, nil
}

// ParseInstructions parses raw input such as "LMLMR". Parsing stops at the
// first invalid character and nothing is returned for the rejected input.
func ParseInstructions(raw string) (InstructionSequence, error) {
	value := make([]Instruction, 0, len(raw))
	for _, c := range raw {
		ins, err := ParseInstruction(c)
		if err != nil {
			return InstructionSequence{}, fmt.Errorf("%w (position %d)", err, len(value)+1)
		}
		value = append(value, ins)
	}
	return InstructionSequence{value: value}, nil
}

// Instructions returns a copy of the program
func (s InstructionSequence) Instructions() []Instruction {
	out := make([]Instruction, len(s.value))
	copy(out, s.value)
	return out
}

// Len returns the number of instructions
func (s InstructionSequence) Len() int {
	return len(s.value)
}

func (s InstructionSequence) String() string {
	var b strings.Builder
	b.Grow(len(s.value))
	for _, ins := range s.value {
		b.WriteRune(ins.Char())
	}
	return b.String()
}
