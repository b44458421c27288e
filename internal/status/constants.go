// internal/status/constants.go
package status

// Status block layout constants.
// These values define the register protocol of the mirror and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of register slots per status block.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the acquisition health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the code of the last failed tick (see Code).
const SlotLastErrorCode = 1

// SlotSecondsInError holds how long (in seconds) acquisition has been failing.
const SlotSecondsInError = 2

// SlotState holds the supervisor state (see StateCode).
const SlotState = 3

// SlotFailuresLo and SlotFailuresHi hold the failed tick counter, low word first.
const SlotFailuresLo = 4
const SlotFailuresHi = 5

// ---- RESERVED RANGE ----

// Slots 6-10 are reserved.
const SlotReservedStart = 6
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// The name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for the device name.
const DeviceNameMaxChars = 16

// SecondsInErrorMax is where seconds_in_error saturates. It MUST NOT wrap.
const SecondsInErrorMax = 65535

// ---- HEALTH CODES ----

// HealthUnknown: no tick has completed yet in this session.
const HealthUnknown uint16 = 0

// HealthOK: the last tick published a reading.
const HealthOK uint16 = 1

// HealthError: the last tick, or the last start, failed.
const HealthError uint16 = 2

// HealthStale: reserved for consumers that age readings themselves.
const HealthStale uint16 = 3

// HealthDisabled: acquisition was stopped.
const HealthDisabled uint16 = 4
