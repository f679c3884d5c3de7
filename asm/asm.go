// Package asm parses TIS-100-style save files: a sequence of per-node
// sections, each a free-form mix of comments, blank lines, labels,
// breakpoints and instructions. See spec §4.1 for the grammar.
//
// The parser is a small hand-rolled scanner rather than a combinator
// library: the retrieved example pack has nothing resembling Rust's nom
// for Go, and the save-file grammar's failure contract (report the byte
// offset of the first unconsumed byte, plus everything parsed so far)
// needs direct control over the cursor that a regexp-based pass (the
// teacher's style in core/program.go) can't give us.
package asm

import (
	"fmt"

	"github.com/sarchlab/tis100sim/instr"
)

// NodeID addresses a contiguous section of the save file by a small
// integer, 0..=255.
type NodeID uint8

// ParseError reports the byte offset of the first unconsumed input and the
// partial per-node map assembled up to that point.
type ParseError struct {
	Offset  int
	Partial map[NodeID][]instr.ProgramItem
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at byte offset %d", e.Offset)
}

// ParseSaveFile parses the bytes of a save file into an ordered map from
// node id to its program items. On success every byte of input has been
// consumed. On failure it returns a *ParseError carrying the offset of the
// first unconsumed byte and the sections successfully parsed so far.
func ParseSaveFile(input []byte) (map[NodeID][]instr.ProgramItem, error) {
	p := &parser{buf: input}
	result := make(map[NodeID][]instr.ProgramItem)

	for {
		p.skipCommentsAndWhitespace()
		if p.pos >= len(p.buf) {
			return result, nil
		}

		id, ok := p.parseNodeHeader()
		if !ok {
			return result, &ParseError{Offset: p.pos, Partial: result}
		}

		items, ok := p.parseProgramItems()
		if !ok {
			return result, &ParseError{Offset: p.pos, Partial: result}
		}
		result[id] = items
	}
}

// ParseProgramItems is a convenience entry point (used by tests and by
// callers that already split save-file text into per-node bodies) that
// parses a single node body with no leading `@N` header. It requires the
// entire input to be consumed.
func ParseProgramItems(input []byte) ([]instr.ProgramItem, error) {
	p := &parser{buf: input}
	items, ok := p.parseProgramItems()
	if !ok || p.pos < len(p.buf) {
		return items, &ParseError{Offset: p.pos}
	}
	return items, nil
}

type parser struct {
	buf []byte
	pos int
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.buf) {
		return 0, false
	}
	return p.buf[p.pos], true
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isSpace(b byte) bool  { return b == ' ' || b == '\t' }
func isLabelChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '-'
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.buf) && isSpace(p.buf[p.pos]) {
		p.pos++
	}
}

// skipComment consumes a '#'-introduced comment through (not including) the
// terminating newline, if one is present at the cursor.
func (p *parser) skipComment() bool {
	if b, ok := p.peek(); !ok || b != '#' {
		return false
	}
	p.pos++
	for p.pos < len(p.buf) && p.buf[p.pos] != '\n' {
		p.pos++
	}
	return true
}

// skipCommentsAndWhitespace consumes any mix of comments and whitespace
// (including newlines), used between node sections and program items.
func (p *parser) skipCommentsAndWhitespace() {
	for {
		start := p.pos
		for p.pos < len(p.buf) {
			b := p.buf[p.pos]
			if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
				p.pos++
				continue
			}
			break
		}
		if p.skipComment() {
			continue
		}
		if p.pos == start {
			return
		}
	}
}

// endOfLine consumes trailing spaces, an optional comment, and one or more
// line breaks each optionally followed by more spaces/comments; or, at end
// of input, nothing at all. Returns false if neither a line break nor EOF
// followed the spaces/comment.
func (p *parser) endOfLine() bool {
	p.skipSpaces()
	p.skipComment()

	if p.pos >= len(p.buf) {
		return true
	}

	matched := false
	for {
		save := p.pos
		if !p.consumeNewline() {
			p.pos = save
			break
		}
		matched = true
		p.skipSpaces()
		p.skipComment()
	}
	return matched
}

func (p *parser) consumeNewline() bool {
	if p.pos < len(p.buf) && p.buf[p.pos] == '\r' {
		p.pos++
	}
	if p.pos < len(p.buf) && p.buf[p.pos] == '\n' {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseNodeHeader() (NodeID, bool) {
	save := p.pos
	b, ok := p.peek()
	if !ok || b != '@' {
		p.pos = save
		return 0, false
	}
	p.pos++

	start := p.pos
	for p.pos < len(p.buf) && isDigit(p.buf[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		p.pos = save
		return 0, false
	}

	n := 0
	for _, b := range p.buf[start:p.pos] {
		n = n*10 + int(b-'0')
	}
	if n > 255 {
		p.pos = save
		return 0, false
	}

	if !p.consumeNewline() {
		p.pos = save
		return 0, false
	}

	return NodeID(n), true
}

func (p *parser) parseProgramItems() ([]instr.ProgramItem, bool) {
	var items []instr.ProgramItem
	for {
		p.skipCommentsAndWhitespace()

		if p.pos >= len(p.buf) {
			return items, true
		}
		if b, _ := p.peek(); b == '@' {
			// next node section begins here
			return items, true
		}

		if item, ok := p.tryParseLabel(); ok {
			items = append(items, item)
			continue
		}
		if item, ok := p.tryParseBreakpoint(); ok {
			items = append(items, item)
			continue
		}
		if item, ok := p.tryParseInstructionLine(); ok {
			items = append(items, item)
			continue
		}

		return items, true
	}
}

func (p *parser) tryParseLabel() (instr.ProgramItem, bool) {
	save := p.pos
	start := p.pos
	for p.pos < len(p.buf) && isLabelChar(p.buf[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		p.pos = save
		return instr.ProgramItem{}, false
	}
	label := string(p.buf[start:p.pos])

	b, ok := p.peek()
	if !ok || b != ':' {
		p.pos = save
		return instr.ProgramItem{}, false
	}
	p.pos++
	p.endOfLine()

	return instr.ProgramItem{Kind: instr.ItemLabel, Label: label}, true
}

func (p *parser) tryParseBreakpoint() (instr.ProgramItem, bool) {
	save := p.pos
	b, ok := p.peek()
	if !ok || b != '!' {
		return instr.ProgramItem{}, false
	}
	p.pos++
	p.skipSpaces()
	_ = save
	return instr.ProgramItem{Kind: instr.ItemBreakpoint}, true
}

func (p *parser) tryParseInstructionLine() (instr.ProgramItem, bool) {
	save := p.pos
	ins, ok := p.parseInstruction()
	if !ok {
		p.pos = save
		return instr.ProgramItem{}, false
	}

	if p.pos < len(p.buf) && !p.endOfLine() {
		p.pos = save
		return instr.ProgramItem{}, false
	}

	return instr.ProgramItem{Kind: instr.ItemInstruction, Instruction: ins}, true
}

func (p *parser) tryTag(tag string) bool {
	if p.pos+len(tag) > len(p.buf) {
		return false
	}
	if string(p.buf[p.pos:p.pos+len(tag)]) != tag {
		return false
	}
	p.pos += len(tag)
	return true
}

// argSep consumes the separator between MOV's two operands: spaces then a
// comma then spaces, or just one-or-more spaces.
func (p *parser) argSep() bool {
	save := p.pos
	p.skipSpaces()
	if b, ok := p.peek(); ok && b == ',' {
		p.pos++
		p.skipSpaces()
		return true
	}
	p.pos = save

	start := p.pos
	p.skipSpaces()
	return p.pos > start
}

func (p *parser) requireSpace() bool {
	start := p.pos
	p.skipSpaces()
	return p.pos > start
}

func (p *parser) parseInstruction() (instr.Instruction, bool) {
	switch {
	case p.tryTag("NOP"):
		return instr.Instruction{Op: instr.OpNOP}, true
	case p.tryTag("MOV"):
		save := p.pos
		if !p.requireSpace() {
			p.pos = save
			return instr.Instruction{}, false
		}
		src, ok := p.parseSrc()
		if !ok {
			p.pos = save
			return instr.Instruction{}, false
		}
		if !p.argSep() {
			p.pos = save
			return instr.Instruction{}, false
		}
		dst, ok := p.parseDst()
		if !ok {
			p.pos = save
			return instr.Instruction{}, false
		}
		return instr.Instruction{Op: instr.OpMOV, Src: src, Dst: dst}, true
	case p.tryTag("SWP"):
		return instr.Instruction{Op: instr.OpSWP}, true
	case p.tryTag("SAV"):
		return instr.Instruction{Op: instr.OpSAV}, true
	case p.tryTag("ADD"):
		save := p.pos
		if !p.requireSpace() {
			p.pos = save
			return instr.Instruction{}, false
		}
		src, ok := p.parseSrc()
		if !ok {
			p.pos = save
			return instr.Instruction{}, false
		}
		return instr.Instruction{Op: instr.OpADD, Src: src}, true
	case p.tryTag("SUB"):
		save := p.pos
		if !p.requireSpace() {
			p.pos = save
			return instr.Instruction{}, false
		}
		src, ok := p.parseSrc()
		if !ok {
			p.pos = save
			return instr.Instruction{}, false
		}
		return instr.Instruction{Op: instr.OpSUB, Src: src}, true
	case p.tryTag("NEG"):
		return instr.Instruction{Op: instr.OpNEG}, true
	case p.tryTag("JRO"):
		save := p.pos
		if !p.requireSpace() {
			p.pos = save
			return instr.Instruction{}, false
		}
		src, ok := p.parseSrc()
		if !ok {
			p.pos = save
			return instr.Instruction{}, false
		}
		return instr.Instruction{Op: instr.OpJRO, Src: src}, true
	case p.tryTag("HCF"):
		return instr.Instruction{Op: instr.OpHCF}, true
	default:
		return p.parseJump()
	}
}

func (p *parser) parseJump() (instr.Instruction, bool) {
	var op instr.Opcode
	switch {
	case p.tryTag("JMP"):
		op = instr.OpJMP
	case p.tryTag("JEZ"):
		op = instr.OpJEZ
	case p.tryTag("JNZ"):
		op = instr.OpJNZ
	case p.tryTag("JGZ"):
		op = instr.OpJGZ
	case p.tryTag("JLZ"):
		op = instr.OpJLZ
	default:
		return instr.Instruction{}, false
	}

	save := p.pos - 3
	if !p.requireSpace() {
		p.pos = save
		return instr.Instruction{}, false
	}

	start := p.pos
	for p.pos < len(p.buf) && isLabelChar(p.buf[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		p.pos = save
		return instr.Instruction{}, false
	}

	return instr.Instruction{Op: op, Label: string(p.buf[start:p.pos])}, true
}

func (p *parser) parseSrc() (instr.Src, bool) {
	if r, ok := p.parseRegister(); ok {
		return instr.RegisterSrc(r), true
	}
	if port, ok := p.parsePort(); ok {
		return instr.PortSrc(port), true
	}
	if imm, ok := p.parseImmediate(); ok {
		return instr.ImmediateSrc(imm), true
	}
	return instr.Src{}, false
}

func (p *parser) parseDst() (instr.Dst, bool) {
	if r, ok := p.parseRegister(); ok {
		return instr.RegisterDst(r), true
	}
	if port, ok := p.parsePort(); ok {
		return instr.PortDst(port), true
	}
	return instr.Dst{}, false
}

func (p *parser) parseRegister() (instr.Register, bool) {
	switch {
	case p.tryTag("ACC"):
		return instr.ACC, true
	case p.tryTag("NIL"):
		return instr.NIL, true
	default:
		return 0, false
	}
}

func (p *parser) parsePort() (instr.Port, bool) {
	switch {
	case p.tryTag("UP"):
		return instr.UP, true
	case p.tryTag("DOWN"):
		return instr.DOWN, true
	case p.tryTag("LEFT"):
		return instr.LEFT, true
	case p.tryTag("RIGHT"):
		return instr.RIGHT, true
	case p.tryTag("ANY"):
		return instr.ANY, true
	case p.tryTag("LAST"):
		return instr.LAST, true
	default:
		return 0, false
	}
}

func (p *parser) parseImmediate() (int16, bool) {
	save := p.pos
	neg := false
	if b, ok := p.peek(); ok && b == '-' {
		neg = true
		p.pos++
	}
	start := p.pos
	for p.pos < len(p.buf) && isDigit(p.buf[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		p.pos = save
		return 0, false
	}

	n := 0
	for _, b := range p.buf[start:p.pos] {
		n = n*10 + int(b-'0')
		if n > 999 {
			p.pos = save
			return 0, false
		}
	}
	if neg {
		n = -n
	}
	return int16(n), true
}
