// LFEM4X - A demodulator and encoder for EM410x and EM4x50 low frequency RFID tags.
// Copyright (C) 2015 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
package em410x

import (
	"context"

	"github.com/bemasher/lfem4x/capture"
	"github.com/bemasher/lfem4x/decode"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Watch acquires and decodes captures until a tag is found, the source fails
// or ctx is done.
func Watch(ctx context.Context, src capture.Source, dec Decoder) (Tag, error) {
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return Tag{}, ctx.Err()
		default:
		}

		w, err := src.Acquire(ctx)
		if err != nil {
			return Tag{}, errors.Wrap(err, "watch")
		}

		tag, err := dec.Decode(w)
		if err == nil {
			return tag, nil
		}
		if !errors.Is(err, decode.ErrNotFound) && !errors.Is(err, decode.ErrPrecondition) {
			return Tag{}, err
		}

		if dec.Log != nil {
			dec.Log.WithFields(logrus.Fields{
				"attempt": attempt,
				"samples": len(w),
			}).Debug("no tag")
		}
	}
}
