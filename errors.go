// go-ieee802154
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-ieee802154.
//
// go-ieee802154 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-ieee802154 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-ieee802154; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package ieee802154

import "errors"

// Ack generation errors
var (
	// ErrFrameCounter is returned when no fresh frame counter could be
	// allocated for a secured Ack
	ErrFrameCounter = errors.New("frame counter allocation failed")
	// ErrEncryptionPrepare is returned when the encryption engine could not
	// stage the transform for a secured Ack
	ErrEncryptionPrepare = errors.New("encryption preparation failed")
	// ErrMissingCollaborator is returned by NewAckGenerator when a required
	// collaborator is nil
	ErrMissingCollaborator = errors.New("missing collaborator")
)
