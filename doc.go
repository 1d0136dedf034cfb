/*
LFEM4X decodes and encodes EM410x and EM4x50 low frequency RFID tags from
sample captures.

Commands:

	read --file capture.txt [--capture-format text|raw] [--msgtype em410x,em4x50|all] [--watch]

Decodes every tag in a capture. EM410x frames are demodulated at --clock
samples per symbol, EM4x50 transmissions are segmented on their Listen
Windows. With --watch the capture is acquired repeatedly until an EM410x tag
is found or --timeout expires.

	sim [--out sim.txt] [--gap 240] <UID>

Encodes a 40-bit EM410x id, for example 0F0368568B, and writes the waveform
for a playback tool. The leading gap is recorded in the file.

	confirm <BITS>

Checks the row and column parity of a 64 character EM410x bit string. The
first 9 characters are taken to be the header and are not examined.

	write [--card 0|1] [--rate 16|32|64] <UID>

Validates a request cloning an id onto a T5555 or T55x7 card and logs the
command arguments.

	word [--response FILE] [--password HEX] [--data HEX] <WORD>

Builds an EM4x50 word request and decodes the raw reader response.

Global flags:

	--config=FILE
	--log=info
	--clock=64
	--format=plain

Every flag may also be given as an LFEM4X_ prefixed environment variable, for
example LFEM4X_CLOCK=32. A yaml config file may set clock, gap, format,
msgtype, unique and log.

Plain text is formatted using the following format string:

	{Time:%s EM410x:{ID:%010X Unique:%010X Inverted:%t}}

No fields are omitted for csv, json or xml output.
*/
package main
