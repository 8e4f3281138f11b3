package keyer

import (
	"errors"

	"code.hybscloud.com/atomix"
)

// Config validation errors (spec §7).
var (
	ErrWPMOutOfRange        = errors.New("keyer: wpm out of range")
	ErrWindowPctOutOfRange  = errors.New("keyer: window percentage out of range")
	ErrWindowPctOrder       = errors.New("keyer: window start must not exceed window end")
	ErrTailOutOfRange       = errors.New("keyer: ptt tail duration out of range")
	ErrSidetoneFreqOutOfRange = errors.New("keyer: sidetone frequency out of range")
)

const (
	minWPM = 5
	maxWPM = 100

	minSidetoneHz = 300
	maxSidetoneHz = 1200

	maxTailMicros = 2_000_000
)

// PersistedConfig is the subset of Config that survives a restart, shaped
// for ConfigStore (spec §6/§9).
type PersistedConfig struct {
	WPM            int    `yaml:"wpm"`
	Mode           string `yaml:"mode"`
	Memory         string `yaml:"memory"`
	Squeeze        string `yaml:"squeeze"`
	WindowStartPct int    `yaml:"window_start_pct"`
	WindowEndPct   int    `yaml:"window_end_pct"`
	PTTTailMicros  int64  `yaml:"ptt_tail_us"`
	SidetoneHz     int    `yaml:"sidetone_hz"`
}

// Config is the process-wide, concurrently-readable keyer configuration
// (spec §3: "config changes take effect atomically, each carrying a
// monotonic generation counter"). Every field lives in its own atomic so
// the RT producer can read a consistent-enough snapshot every tick without
// ever blocking on a writer; readers that need a fully coherent multi-field
// view should use Snapshot, which still may race a concurrent Set (the spec
// only guarantees per-sample attribution via ConfigGen, not cross-field
// atomicity).
type Config struct {
	generation atomix.Uint64

	wpm            atomix.Int32
	mode           atomix.Int32
	memory         atomix.Int32
	squeeze        atomix.Int32
	windowStartPct atomix.Int32
	windowEndPct   atomix.Int32
	pttTailMicros  atomix.Int64
	sidetoneHz     atomix.Int32
}

// NewConfig returns a Config seeded with reasonable defaults: 20 WPM, Mode
// B, both-paddle memory, live squeeze sampling, a 0-100% window, a 200ms
// PTT tail, and a 600Hz sidetone.
func NewConfig() *Config {
	c := &Config{}
	c.generation.StoreRelaxed(1)
	c.wpm.StoreRelaxed(20)
	c.mode.StoreRelaxed(int32(ModeB))
	c.memory.StoreRelaxed(int32(MemoryBoth))
	c.squeeze.StoreRelaxed(int32(SqueezeLive))
	c.windowStartPct.StoreRelaxed(0)
	c.windowEndPct.StoreRelaxed(100)
	c.pttTailMicros.StoreRelaxed(200_000)
	c.sidetoneHz.StoreRelaxed(600)
	return c
}

// Generation returns the current configuration generation. It is
// incremented by every setter call that accepts its value, whether or not
// that value differs from the one already stored.
func (c *Config) Generation() uint64 { return c.generation.LoadAcquire() }

func (c *Config) bump() { c.generation.AddAcqRel(1) }

// SetWPM validates and stores a new keying speed (spec §3: 5-100 WPM).
func (c *Config) SetWPM(wpm int) error {
	if wpm < minWPM || wpm > maxWPM {
		return ErrWPMOutOfRange
	}
	c.wpm.StoreRelease(int32(wpm))
	c.bump()
	return nil
}

// SetMode stores the iambic mode (A or B).
func (c *Config) SetMode(mode IambicMode) {
	c.mode.StoreRelease(int32(mode))
	c.bump()
}

// SetMemory stores the squeeze memory policy.
func (c *Config) SetMemory(memory MemoryMode) {
	c.memory.StoreRelease(int32(memory))
	c.bump()
}

// SetSqueeze stores the memory-window paddle sampling mode (spec §9 open
// question, resolved in keyer/iambic.go).
func (c *Config) SetSqueeze(squeeze SqueezeMode) {
	c.squeeze.StoreRelease(int32(squeeze))
	c.bump()
}

// SetWindow validates and stores the memory window's start/end percentages
// of the current element (spec §4.3: 0-100, start <= end).
func (c *Config) SetWindow(startPct, endPct int) error {
	if startPct < 0 || startPct > 100 || endPct < 0 || endPct > 100 {
		return ErrWindowPctOutOfRange
	}
	if startPct > endPct {
		return ErrWindowPctOrder
	}
	c.windowStartPct.StoreRelease(int32(startPct))
	c.windowEndPct.StoreRelease(int32(endPct))
	c.bump()
	return nil
}

// SetPTTTailMicros validates and stores the PTT tail duration.
func (c *Config) SetPTTTailMicros(us int64) error {
	if us < 0 || us > maxTailMicros {
		return ErrTailOutOfRange
	}
	c.pttTailMicros.StoreRelease(us)
	c.bump()
	return nil
}

// SetSidetoneHz validates and stores the sidetone frequency.
func (c *Config) SetSidetoneHz(hz int) error {
	if hz < minSidetoneHz || hz > maxSidetoneHz {
		return ErrSidetoneFreqOutOfRange
	}
	c.sidetoneHz.StoreRelease(int32(hz))
	c.bump()
	return nil
}

// IambicConfig returns the subset of Config the FSM needs, read with
// acquire ordering (spec §3).
func (c *Config) IambicConfig() IambicConfig {
	return IambicConfig{
		WPM:            int(c.wpm.LoadAcquire()),
		Mode:           IambicMode(c.mode.LoadAcquire()),
		Memory:         MemoryMode(c.memory.LoadAcquire()),
		Squeeze:        SqueezeMode(c.squeeze.LoadAcquire()),
		WindowStartPct: int(c.windowStartPct.LoadAcquire()),
		WindowEndPct:   int(c.windowEndPct.LoadAcquire()),
	}
}

// PTTTailMicros returns the current PTT tail duration.
func (c *Config) PTTTailMicros() int64 { return c.pttTailMicros.LoadAcquire() }

// SidetoneHz returns the current sidetone frequency.
func (c *Config) SidetoneHz() int { return int(c.sidetoneHz.LoadAcquire()) }

// ConfigGenTag returns the low 16 bits of the generation counter, the value
// stamped into a Sample's ConfigGen field on a config-change tick (spec §3).
func (c *Config) ConfigGenTag() uint16 { return uint16(c.Generation()) }

// Snapshot returns the full persistable configuration for ConfigStore.
func (c *Config) Snapshot() PersistedConfig {
	ic := c.IambicConfig()
	return PersistedConfig{
		WPM:            ic.WPM,
		Mode:           modeName(ic.Mode),
		Memory:         memoryName(ic.Memory),
		Squeeze:        squeezeName(ic.Squeeze),
		WindowStartPct: ic.WindowStartPct,
		WindowEndPct:   ic.WindowEndPct,
		PTTTailMicros:  c.PTTTailMicros(),
		SidetoneHz:     c.SidetoneHz(),
	}
}

// Restore applies a persisted configuration loaded via ConfigStore.Load.
// Invalid fields are rejected individually; valid fields are still applied.
func (c *Config) Restore(p PersistedConfig) error {
	var firstErr error
	try := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	try(c.SetWPM(p.WPM))
	c.SetMode(modeFromName(p.Mode))
	c.SetMemory(memoryFromName(p.Memory))
	c.SetSqueeze(squeezeFromName(p.Squeeze))
	try(c.SetWindow(p.WindowStartPct, p.WindowEndPct))
	try(c.SetPTTTailMicros(p.PTTTailMicros))
	try(c.SetSidetoneHz(p.SidetoneHz))
	return firstErr
}

func modeName(m IambicMode) string {
	if m == ModeA {
		return "a"
	}
	return "b"
}

func modeFromName(s string) IambicMode {
	if s == "a" {
		return ModeA
	}
	return ModeB
}

func memoryName(m MemoryMode) string {
	switch m {
	case MemoryNone:
		return "none"
	case MemoryDotOnly:
		return "dit"
	case MemoryDahOnly:
		return "dah"
	default:
		return "both"
	}
}

func memoryFromName(s string) MemoryMode {
	switch s {
	case "none":
		return MemoryNone
	case "dit":
		return MemoryDotOnly
	case "dah":
		return MemoryDahOnly
	default:
		return MemoryBoth
	}
}

func squeezeName(s SqueezeMode) string {
	if s == SqueezeLatched {
		return "latched"
	}
	return "live"
}

func squeezeFromName(s string) SqueezeMode {
	if s == "latched" {
		return SqueezeLatched
	}
	return SqueezeLive
}
