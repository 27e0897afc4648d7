package model

import "github.com/google/uuid"

// Every aggregate and sub-entity in the data model carries a stable opaque
// id. Each gets its own named type so a TrackID can never be passed where an
// ElementID is expected, even though both are uuid.UUID underneath.

type SceneID uuid.UUID
type TrackID uuid.UUID
type ElementID uuid.UUID
type MediaID uuid.UUID
type DefinitionID uuid.UUID
type MarkerID uuid.UUID
type StateID uuid.UUID
type OperationID uuid.UUID
type ConfigID uuid.UUID

func NewSceneID() SceneID           { return SceneID(uuid.New()) }
func NewTrackID() TrackID           { return TrackID(uuid.New()) }
func NewElementID() ElementID       { return ElementID(uuid.New()) }
func NewMediaID() MediaID           { return MediaID(uuid.New()) }
func NewDefinitionID() DefinitionID { return DefinitionID(uuid.New()) }
func NewMarkerID() MarkerID         { return MarkerID(uuid.New()) }
func NewStateID() StateID           { return StateID(uuid.New()) }
func NewOperationID() OperationID   { return OperationID(uuid.New()) }
func NewConfigID() ConfigID         { return ConfigID(uuid.New()) }

func (id SceneID) String() string      { return uuid.UUID(id).String() }
func (id TrackID) String() string      { return uuid.UUID(id).String() }
func (id ElementID) String() string    { return uuid.UUID(id).String() }
func (id MediaID) String() string      { return uuid.UUID(id).String() }
func (id DefinitionID) String() string { return uuid.UUID(id).String() }
func (id MarkerID) String() string     { return uuid.UUID(id).String() }
func (id StateID) String() string      { return uuid.UUID(id).String() }
func (id OperationID) String() string  { return uuid.UUID(id).String() }
func (id ConfigID) String() string     { return uuid.UUID(id).String() }

func (id SceneID) IsZero() bool      { return id == SceneID{} }
func (id TrackID) IsZero() bool      { return id == TrackID{} }
func (id ElementID) IsZero() bool    { return id == ElementID{} }
func (id DefinitionID) IsZero() bool { return id == DefinitionID{} }

// MarshalText/UnmarshalText on every id type round them through their
// canonical "xxxxxxxx-xxxx-..." string form for JSON (and anything else
// encoding/json-compatible) rather than the zero-value default of a raw
// 16-element byte array -- the shape internal/persistence actually stores.

func (id SceneID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id TrackID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id ElementID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id MediaID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id DefinitionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id MarkerID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id StateID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id OperationID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id ConfigID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *SceneID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TrackID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ElementID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MediaID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DefinitionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MarkerID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *StateID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *OperationID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ConfigID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
