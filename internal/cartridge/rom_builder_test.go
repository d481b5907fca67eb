package cartridge

import (
	"bytes"
	"fmt"
)

// testROMConfig describes a synthetic iNES image assembled for one test case.
type testROMConfig struct {
	prgSize     uint8 // PRG ROM size in 16KB units
	chrSize     uint8 // CHR ROM size in 8KB units (0 = CHR RAM)
	mapperID    uint8
	mirroring   MirrorMode
	hasBattery  bool
	data        map[uint16]uint8 // byte patches at PRG-relative offsets
	resetVector uint16
	irqVector   uint16
	nmiVector   uint16
	chrData     []uint8
	description string
}

// testROMBuilder is a fluent helper for constructing minimal test ROMs
// without hand-assembling iNES headers in every test.
type testROMBuilder struct {
	config testROMConfig
}

// NewTestROMBuilder starts a builder with a one-bank NROM default
// configuration: callers override only the fields their test cares about.
func NewTestROMBuilder() *testROMBuilder {
	return &testROMBuilder{
		config: testROMConfig{
			prgSize:     1,
			chrSize:     1,
			mirroring:   MirrorHorizontal,
			data:        make(map[uint16]uint8),
			resetVector: 0x8000,
			irqVector:   0x8000,
			nmiVector:   0x8000,
			description: "generated test ROM",
		},
	}
}

func (b *testROMBuilder) WithPRGSize(size uint8) *testROMBuilder {
	b.config.prgSize = size
	return b
}

func (b *testROMBuilder) WithCHRSize(size uint8) *testROMBuilder {
	b.config.chrSize = size
	return b
}

// WithCHRRAM switches the cartridge to CHR RAM (CHR ROM size of 0).
func (b *testROMBuilder) WithCHRRAM() *testROMBuilder {
	b.config.chrSize = 0
	return b
}

func (b *testROMBuilder) WithMapper(mapperID uint8) *testROMBuilder {
	b.config.mapperID = mapperID
	return b
}

func (b *testROMBuilder) WithMirroring(mirroring MirrorMode) *testROMBuilder {
	b.config.mirroring = mirroring
	return b
}

func (b *testROMBuilder) WithBattery() *testROMBuilder {
	b.config.hasBattery = true
	return b
}

// WithInstructions patches raw bytes at the start of PRG ROM.
func (b *testROMBuilder) WithInstructions(instructions []uint8) *testROMBuilder {
	return b.WithData(0x0000, instructions)
}

// WithData patches raw bytes at a PRG-relative offset (not a CPU address).
func (b *testROMBuilder) WithData(offset uint16, data []uint8) *testROMBuilder {
	for i, value := range data {
		b.config.data[offset+uint16(i)] = value
	}
	return b
}

func (b *testROMBuilder) WithResetVector(address uint16) *testROMBuilder {
	b.config.resetVector = address
	return b
}

func (b *testROMBuilder) WithIRQVector(address uint16) *testROMBuilder {
	b.config.irqVector = address
	return b
}

func (b *testROMBuilder) WithNMIVector(address uint16) *testROMBuilder {
	b.config.nmiVector = address
	return b
}

func (b *testROMBuilder) WithCHRData(data []uint8) *testROMBuilder {
	b.config.chrData = append([]uint8(nil), data...)
	return b
}

func (b *testROMBuilder) WithDescription(description string) *testROMBuilder {
	b.config.description = description
	return b
}

// Build assembles the iNES image bytes for the current configuration.
func (b *testROMBuilder) Build() ([]byte, error) {
	if b.config.prgSize == 0 {
		return nil, fmt.Errorf("PRG ROM size cannot be zero")
	}

	header := make([]byte, 16)
	copy(header[0:4], "NES\x1A")
	header[4] = b.config.prgSize
	header[5] = b.config.chrSize

	flags6 := uint8(0)
	switch b.config.mirroring {
	case MirrorVertical:
		flags6 |= 0x01
	case MirrorFourScreen:
		flags6 |= 0x08
	}
	if b.config.hasBattery {
		flags6 |= 0x02
	}
	flags6 |= (b.config.mapperID & 0x0F) << 4
	header[6] = flags6
	header[7] = b.config.mapperID & 0xF0

	prgSize := int(b.config.prgSize) * 16384
	prgROM := make([]byte, prgSize)
	for offset, value := range b.config.data {
		if int(offset) < prgSize {
			prgROM[offset] = value
		}
	}
	vectorOffset := prgSize - 6
	prgROM[vectorOffset] = uint8(b.config.nmiVector & 0xFF)
	prgROM[vectorOffset+1] = uint8(b.config.nmiVector >> 8)
	prgROM[vectorOffset+2] = uint8(b.config.resetVector & 0xFF)
	prgROM[vectorOffset+3] = uint8(b.config.resetVector >> 8)
	prgROM[vectorOffset+4] = uint8(b.config.irqVector & 0xFF)
	prgROM[vectorOffset+5] = uint8(b.config.irqVector >> 8)

	result := append([]byte{}, header...)
	result = append(result, prgROM...)

	if b.config.chrSize > 0 {
		chrSize := int(b.config.chrSize) * 8192
		chrROM := make([]byte, chrSize)
		copySize := len(b.config.chrData)
		if copySize > chrSize {
			copySize = chrSize
		}
		copy(chrROM, b.config.chrData[:copySize])
		result = append(result, chrROM...)
	}

	return result, nil
}

// BuildCartridge assembles the ROM image and loads it as a Cartridge.
func (b *testROMBuilder) BuildCartridge() (*Cartridge, error) {
	romData, err := b.Build()
	if err != nil {
		return nil, err
	}
	return LoadFromReader(bytes.NewReader(romData))
}
