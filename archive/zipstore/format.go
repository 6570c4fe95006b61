/*
 *  MIT License
 *
 *  Copyright (c) 2024 Salim Amine BOU ARAM & Nicolas JUHEL
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package zipstore

// ZIP/ZIP64 record signatures and fixed field layouts, all little-endian,
// per the PKWARE APPNOTE.TXT format this package scans directly off the
// mapped regions.
const (
	sigEOCD           = 0x06054b50
	sigZIP64Locator   = 0x07064b50
	sigZIP64EOCD      = 0x06064b50
	sigCentralDir     = 0x02014b50
	sigLocalFile      = 0x04034b50
	zip64ExtraTag     = 0x0001
	sentinel16        = 0xFFFF
	sentinel32        = 0xFFFFFFFF
	eocdFixedSize     = 22
	zip64LocatorSize  = 20
	zip64EOCDMinSize  = 56
	centralHeaderSize = 46
	localHeaderSize   = 30

	// CompressStore and CompressDeflate are the only two compression
	// methods this module understands; anything else is reported as a
	// protocol-optional failure and the entry is skipped.
	CompressStore    uint16 = 0
	CompressDeflate  uint16 = 8
	flagEncrypted    uint16 = 1 << 0
	flagDataDescr    uint16 = 1 << 3
	flagUTF8         uint16 = 1 << 11
)
