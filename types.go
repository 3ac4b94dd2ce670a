package control

import "github.com/jward/control/internal/snapshot"

// Public type aliases for the snapshot record types. These are Go type
// aliases (=), identical to the internal types at compile time.

type Position = snapshot.Position
type Region = snapshot.Region
type Snapshot = snapshot.Snapshot
